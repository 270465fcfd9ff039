package maskd

import (
	"encoding/json"
	"log"
	"log/slog"

	"github.com/olahol/melody"
)

// initMelody sets up the websocket handler at /events.
// Every completed mask job (degraded ones included) is broadcast as
// a JobResult to all connected clients.
func (d *MaskDaemon) initMelody() {
	d.melodyInstance = melody.New()

	d.melodyInstance.HandleConnect(func(s *melody.Session) {
		log.Println("[websocket] connected", s.Request.RemoteAddr)
	})

	// Don't care about incoming messages from clients. Log and drop.
	d.melodyInstance.HandleMessage(func(s *melody.Session, msg []byte) {
		log.Println("[websocket] message", string(msg))
	})

	d.melodyInstance.HandleDisconnect(func(s *melody.Session) {
		log.Println("[websocket] disconnected", s.Request.RemoteAddr)
	})

	d.melodyInstance.HandleError(func(s *melody.Session, e error) {
		log.Println("[websocket] error", e, s.Request.RemoteAddr)
	})

	jobs := make(chan JobResult)
	jobSub := d.feedComputed.Subscribe(jobs)
	go func() {
		for {
			select {
			case job := <-jobs:
				b, err := json.Marshal(job)
				if err != nil {
					slog.Error("Failed to marshal job event", "error", err)
					continue
				}
				if err := d.melodyInstance.Broadcast(b); err != nil {
					slog.Warn("Failed to broadcast job event", "error", err)
				}
			case err := <-jobSub.Err():
				slog.Error("Job feed subscription failed", "error", err)
				return
			}
		}
	}()
}
