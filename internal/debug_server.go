package internal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"streamchat/contract"
	"streamchat/repositories"
	"streamchat/telemetry"
)

// StartDebugServer exposes the operational endpoints on a side port:
// prometheus exposition, a liveness probe, a read-only archive browser
// and the moderator review search.
func StartDebugServer(log *slog.Logger, metrics *telemetry.Metrics, archive contract.Archive,
	review *repositories.ReviewIndex, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc("/archive", func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			http.Error(w, "missing room parameter", http.StatusBadRequest)
			return
		}
		msgs, err := archive.List(roomID, 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(msgs)
	})

	mux.HandleFunc("/review/search", func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		query := r.URL.Query().Get("q")
		if roomID == "" || query == "" {
			http.Error(w, "missing room or q parameter", http.StatusBadRequest)
			return
		}
		from, _ := strconv.Atoi(r.URL.Query().Get("from"))
		entries, total, err := review.SearchFlagged(r.Context(), query, roomID, from)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"total": total, "entries": entries})
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("debug server failed", "err", err)
		}
	}()
	log.Info("debug server listening", "port", port)
}
