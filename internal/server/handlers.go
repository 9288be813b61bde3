// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, and the built-in test page.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

const healthQueryTimeout = 2 * time.Second

func newUpgrader(origins *originPolicy) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     origins.checkOrigin,
	}
}

// WebSocketHandler upgrades the request, creates a Client and hands it to the
// hub, which launches the read/write pumps.
func WebSocketHandler(hub *Hub, upgrader *websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Warn().Err(err).Str("addr", r.RemoteAddr).Msg("websocket upgrade failed")
			return
		}

		client := NewClient(conn, hub, r.RemoteAddr)
		if err := hub.Register(client); err != nil {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			_ = conn.Close()
		}
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Stats
}

// HealthHandler reports liveness plus connection and presence counts. It
// answers 503 once the hub has stopped.
func HealthHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthQueryTimeout)
		defer cancel()

		resp := healthResponse{
			Status:    "ok",
			Version:   Version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		status := http.StatusOK

		stats, err := hub.Stats(ctx)
		if err != nil {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		resp.Stats = stats

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// TestPageHandler serves a minimal HTML client for trying the relay by hand.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(testPage))
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #log { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; background: #f9f9f9; }
        input[type="text"] { width: 200px; padding: 5px; margin-right: 10px; }
        #users { color: #555; }
    </style>
</head>
<body>
    <h1>Relay Test</h1>
    <div>
        <input type="text" id="name" placeholder="Your name">
        <button onclick="join()">Join</button>
    </div>
    <p id="users">Online: none</p>
    <div>
        <input type="text" id="room" value="global">
        <input type="text" id="content" placeholder="Type a message..." disabled>
        <button id="send" onclick="sendChat()" disabled>Send</button>
        <button id="clear" onclick="emit('clear_chat')" disabled>Clear</button>
    </div>
    <div id="log"></div>

    <script>
        let ws = null;
        let me = '';
        const log = document.getElementById('log');

        function append(text) {
            const el = document.createElement('div');
            el.textContent = text;
            log.appendChild(el);
            log.scrollTop = log.scrollHeight;
        }

        function emit(event, data) {
            ws.send(JSON.stringify(data === undefined ? { event } : { event, data }));
        }

        function handle(env) {
            switch (env.event) {
            case 'update_users':
                document.getElementById('users').textContent =
                    'Online: ' + (env.data || []).map(u => u.name).join(', ');
                break;
            case 'history':
                (env.data || []).forEach(m => append('[history] ' + m.user + ': ' + m.content));
                break;
            case 'chat_message':
                append('[' + env.data.room + '] ' + env.data.user + ': ' + env.data.content);
                break;
            case 'clear_chat':
                log.innerHTML = '';
                break;
            default:
                append(env.event + ' ' + JSON.stringify(env.data || {}));
            }
        }

        function join() {
            me = document.getElementById('name').value.trim();
            if (!me) return;
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws');
            ws.onopen = () => {
                emit('join', { name: me, avatar: '' });
                ['content', 'send', 'clear'].forEach(id => document.getElementById(id).disabled = false);
            };
            ws.onmessage = e => handle(JSON.parse(e.data));
            ws.onclose = () => append('Connection closed');
        }

        function sendChat() {
            const input = document.getElementById('content');
            const content = input.value.trim();
            if (!content) return;
            emit('chat_message', {
                user: me, avatar: '', content, type: 'text',
                time: Date.now(), room: document.getElementById('room').value,
            });
            input.value = '';
        }
    </script>
</body>
</html>`
