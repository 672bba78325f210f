package channel

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// WebsocketDialer returns the production Dialer. The credential token is
// attached as a bearer Authorization header; messages are JSON envelopes
// read one frame at a time.
func WebsocketDialer() Dialer {
	return func(ctx context.Context, url, token string) (Conn, error) {
		header := make(http.Header)
		if token != "" {
			header.Set("Authorization", "Bearer "+token)
		}

		conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{
			HTTPHeader:      header,
			CompressionMode: websocket.CompressionDisabled,
		})
		if err != nil {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			return nil, err
		}

		return &wsConn{conn: conn}, nil
	}
}

// wsConn adapts a websocket connection to the Conn interface.
type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) ReadEnvelope(ctx context.Context) (Envelope, error) {
	var envelope Envelope
	if err := wsjson.Read(ctx, w.conn, &envelope); err != nil {
		return Envelope{}, err
	}
	return envelope, nil
}

func (w *wsConn) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "")
}
