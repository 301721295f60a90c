package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/fd1az/quote-engine/internal/apperror"
)

const writeTimeout = 5 * time.Second

// streamMessage is one frame of the quote stream: a quote or an error.
type streamMessage struct {
	Type  string         `json:"type"`
	Quote *QuoteView     `json:"quote,omitempty"`
	Error *apperror.Body `json:"error,omitempty"`
}

// streamQuotes re-quotes the request on every tick until the client goes away.
// Each tick re-reads venue state.
func (h *Handler) streamQuotes(w http.ResponseWriter, r *http.Request) {
	req, err := quoteRequestFromQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// Inbound frames are not expected; CloseRead cancels ctx when the peer closes.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()

	for {
		msg := streamMessage{Type: "quote"}
		q, err := h.svc.GetQuote(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) {
				appErr = apperror.New(apperror.CodeInternalError, apperror.WithCause(err))
			}
			body := appErr.Body()
			msg = streamMessage{Type: "error", Error: &body}
		} else {
			view := NewQuoteView(q, h.places)
			msg.Quote = &view
		}

		if err := h.write(ctx, conn, msg); err != nil {
			if !errors.Is(err, context.Canceled) {
				h.logger.Debug(ctx, "quote stream closed", "error", err)
			}
			return
		}

		// Input errors do not heal by retrying.
		if msg.Type == "error" && !retryable(err) {
			conn.Close(websocket.StatusPolicyViolation, string(apperror.GetCode(err)))
			return
		}

		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, msg streamMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

func retryable(err error) bool {
	switch apperror.GetCode(err) {
	case apperror.CodeNoLiveSource, apperror.CodeTimeout, apperror.CodeInternalError:
		return true
	default:
		return false
	}
}
