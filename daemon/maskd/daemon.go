// Package maskd serves mask computation over HTTP, with a websocket
// feed of completed jobs and a persistent mask store.
package maskd

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/jellydator/ttlcache/v3"
	"github.com/olahol/melody"
	"github.com/rotblauer/gridmask/mask"
	"github.com/rotblauer/gridmask/maskdb"
	"github.com/rotblauer/gridmask/params"
)

type MaskDaemon struct {
	Config *params.MaskDaemonConfig

	logger         *slog.Logger
	melodyInstance *melody.Melody
	feedComputed   event.FeedOf[JobResult]
	store          *maskdb.Store
	responseCache  *ttlcache.Cache[string, []byte]
	httpServer     *http.Server
}

// JobResult is the completed-job summary broadcast to websocket
// subscribers and cached per request key.
type JobResult struct {
	Key      string       `json:"key"`
	Nlat     int          `json:"nlat"`
	Nlon     int          `json:"nlon"`
	Degraded bool         `json:"degraded"`
	Summary  mask.Summary `json:"summary"`
	Elapsed  string       `json:"elapsed"`
}

func NewMaskDaemon(config *params.MaskDaemonConfig) (*MaskDaemon, error) {
	if config == nil {
		config = params.DefaultMaskDaemonConfig()
	}
	d := &MaskDaemon{
		Config: config,
		logger: slog.With("d", "mask"),
		responseCache: ttlcache.New[string, []byte](
			ttlcache.WithTTL[string, []byte](params.CacheResponseTTL)),
	}
	if config.DataDir != "" {
		store, err := maskdb.Open(config.DataDir)
		if err != nil {
			return nil, err
		}
		d.store = store
	}
	return d, nil
}

// Run starts the HTTP server (ListenAndServe) and waits on it,
// returning any server error.
func (d *MaskDaemon) Run() error {
	go d.responseCache.Start()
	router := d.NewRouter()
	http.Handle("/", router)
	log.Printf("Starting mask daemon on %s", d.Config.Address)
	d.httpServer = &http.Server{
		Addr:              d.Config.Address,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return d.httpServer.ListenAndServe()
}

func (d *MaskDaemon) Close() error {
	if d.httpServer != nil {
		_ = d.httpServer.Close()
	}
	d.responseCache.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

func (d *MaskDaemon) NewRouter() *mux.Router {
	d.initMelody()
	http.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		_ = d.melodyInstance.HandleRequest(w, r)
	})

	router := mux.NewRouter().StrictSlash(false)
	router.Use(loggingMiddleware)

	apiRoutes := router.NewRoute().Subrouter()
	apiRoutes.Use(permissiveCorsMiddleware)

	// /ping is a simple server healthcheck endpoint
	apiRoutes.Path("/ping").HandlerFunc(pingPong)

	apiJSONRoutes := apiRoutes.NewRoute().Subrouter()
	apiJSONRoutes.Use(contentTypeMiddlewareFunc("application/json"))

	apiJSONRoutes.Path("/mask").HandlerFunc(d.handleComputeMask).Methods(http.MethodPost)
	apiJSONRoutes.Path("/mask/").HandlerFunc(d.handleComputeMask).Methods(http.MethodPost)

	return router
}
