package cart

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/uchsash/medistore/api/responses"
	cartsvc "github.com/uchsash/medistore/internal/cart"
	pkgerrors "github.com/uchsash/medistore/pkg/errors"
	"github.com/uchsash/medistore/pkg/logger"
)

const (
	cartEvent         = "cart"
	eventKeepAlive    = 15 * time.Second
	eventStreamFormat = "event: %s\ndata: %s\n\n"
)

// CartEvents streams the cart as server-sent events: the current state on
// connect, then one event per change from this or any other instance.
// Bursts coalesce into the latest state.
func CartEvents(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := storeFor(carts, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rc := http.NewResponseController(w)

		var (
			mu     sync.Mutex
			latest cartsvc.Snapshot
		)
		wake := make(chan struct{}, 1)
		unsubscribe := store.Subscribe(func(snap cartsvc.Snapshot) {
			mu.Lock()
			latest = snap
			mu.Unlock()
			select {
			case wake <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		ctx := r.Context()
		if err := writeEvent(w, rc, store.Snapshot(ctx)); err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart.events.write_failed")
			}
			return
		}

		keepAlive := time.NewTicker(eventKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-keepAlive.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := rc.Flush(); err != nil {
					return
				}
			case <-wake:
				mu.Lock()
				snap := latest
				mu.Unlock()
				if err := writeEvent(w, rc, snap); err != nil {
					if logg != nil {
						logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart.events.write_failed")
					}
					return
				}
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, snap cartsvc.Snapshot) error {
	payload, err := json.Marshal(newCartResponse(snap))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart event")
	}
	if _, err := fmt.Fprintf(w, eventStreamFormat, cartEvent, payload); err != nil {
		return err
	}
	return rc.Flush()
}
