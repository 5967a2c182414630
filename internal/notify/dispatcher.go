package notify

import (
	"context"
	"sync"
	"time"

	"github.com/lshigami/skillcheck/config"
	"github.com/rs/zerolog/log"
)

const sendTimeout = 15 * time.Second

// Dispatcher sends invite emails from a bounded queue on a background worker so issuing an
// invite never waits on the mail provider. A full queue drops the email with a warning.
type Dispatcher struct {
	mailer     Mailer
	queue      chan InviteEmail
	maxRetries int
	backoff    time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewDispatcher(mailer Mailer, cfg *config.Config) *Dispatcher {
	size := cfg.Email.QueueSize
	if size <= 0 {
		size = 100
	}
	return &Dispatcher{
		mailer:     mailer,
		queue:      make(chan InviteEmail, size),
		maxRetries: cfg.Email.MaxRetries,
		backoff:    time.Second,
		stop:       make(chan struct{}),
	}
}

// Enqueue reports whether the email was accepted.
func (d *Dispatcher) Enqueue(email InviteEmail) bool {
	select {
	case d.queue <- email:
		return true
	default:
		log.Warn().Str("inviteID", email.InviteID).Msg("Invite email queue full, dropping email")
		return false
	}
}

func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
	log.Info().Int("queueSize", cap(d.queue)).Msg("Invite email dispatcher started")
}

// Stop drains what is already queued, then returns.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.stop) })
	d.wg.Wait()
	log.Info().Msg("Invite email dispatcher stopped")
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case email := <-d.queue:
			d.deliver(email)
		case <-d.stop:
			for {
				select {
				case email := <-d.queue:
					d.deliver(email)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(email InviteEmail) {
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		result, err := d.mailer.SendInviteEmail(ctx, email.Email, email.URL)
		cancel()

		if result != Failed {
			if err != nil {
				log.Warn().Err(err).Str("inviteID", email.InviteID).Str("result", string(result)).Msg("Invite email not delivered")
			} else {
				log.Debug().Str("inviteID", email.InviteID).Str("result", string(result)).Msg("Invite email handled")
			}
			return
		}
		if attempt >= d.maxRetries {
			log.Error().Err(err).Str("inviteID", email.InviteID).Int("attempts", attempt+1).Msg("Invite email failed, giving up")
			return
		}
		select {
		case <-time.After(d.backoff * time.Duration(attempt+1)):
		case <-d.stop:
			log.Warn().Err(err).Str("inviteID", email.InviteID).Msg("Invite email failed during shutdown, giving up")
			return
		}
	}
}
