package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime"
	"net/http"
	"os"

	"label-relay/internal/models"
	"label-relay/internal/relay"

	"github.com/google/go-github/v80/github"
)

// GitHub caps webhook payloads at 25 MB.
const maxPayloadBytes = 25 << 20

type WebhookServer struct {
	Relay *relay.Relay

	// Next receives deliveries the relay declines. Defaults to Ignored.
	Next   http.Handler
	Logger *log.Logger
}

func NewWebhookServer(r *relay.Relay) *WebhookServer {
	return &WebhookServer{
		Relay:  r,
		Next:   Ignored,
		Logger: log.New(os.Stderr, "webhook: ", log.LstdFlags),
	}
}

// Ignored acknowledges a delivery nothing handled.
var Ignored = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func (s *WebhookServer) Handler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	eventType := github.WebHookType(r)
	delivery := github.DeliveryID(r)

	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		s.Logger.Printf("Error reading content type event=%q delivery=%q: %v", eventType, delivery, err)
		http.Error(w, "Invalid content type", http.StatusBadRequest)
		return
	}

	// Empty signature and secret: the body is only unwrapped, never verified.
	body := http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	payload, err := github.ValidatePayloadFromBody(contentType, body, "", nil)
	if err != nil {
		s.Logger.Printf("Error reading payload event=%q delivery=%q: %v", eventType, delivery, err)
		http.Error(w, "Invalid payload", http.StatusBadRequest)
		return
	}

	event, err := models.ParseLabelEvent(payload)
	if err != nil {
		s.Logger.Printf("Error parsing payload event=%q delivery=%q: %v", eventType, delivery, err)
		http.Error(w, "Parse error", http.StatusBadRequest)
		return
	}

	ack, err := s.Relay.Handle(r.Context(), event, s.forward(w, r, payload))
	if err != nil {
		s.Logger.Printf("Error handling event=%q delivery=%q: %v", eventType, delivery, err)
		if errors.Is(err, models.ErrMissingTarget) {
			http.Error(w, "Label event without pull request or issue", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	if ack.Delegated {
		return
	}

	s.Logger.Printf("Relayed label %q event=%q delivery=%q ok=%t", event.Label.GetName(), eventType, delivery, ack.Success)
	writeAck(w, ack)
}

// forward hands the delivery to s.Next with the unwrapped JSON payload as its body.
func (s *WebhookServer) forward(w http.ResponseWriter, r *http.Request, payload []byte) relay.Continuation {
	return func(ctx context.Context, event *models.LabelEvent) (models.Ack, error) {
		next := s.Next
		if next == nil {
			next = Ignored
		}

		req := r.Clone(ctx)
		req.Body = io.NopCloser(bytes.NewReader(payload))
		req.ContentLength = int64(len(payload))
		req.Header.Set("Content-Type", "application/json")

		next.ServeHTTP(w, req)
		return models.Ack{Success: true, Delegated: true}, nil
	}
}

func writeAck(w http.ResponseWriter, ack models.Ack) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ack)
}

// Index is the landing page for GET /.
func Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(`
		<html>
		<head><title>Label Relay</title></head>
		<body style="font-family: sans-serif; text-align: center; padding: 50px;">
			<h1>Label Relay</h1>
			<p>The relay is running. Point your GitHub webhook at <code>/webhook</code>.</p>
		</body>
		</html>`))
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok\n"))
}

// Routes mounts the relay endpoints on a new mux.
func (s *WebhookServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", Index)
	mux.HandleFunc("/healthz", Healthz)
	mux.HandleFunc("/webhook", s.Handler)
	return mux
}
