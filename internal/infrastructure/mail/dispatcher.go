package mail

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/mechswap-api/internal/application/ports"
	"github.com/jhoicas/mechswap-api/pkg/logger"
)

// DispatcherConfig tamaño de la cola, número de workers y límite por envío.
type DispatcherConfig struct {
	QueueSize   int
	Workers     int
	SendTimeout time.Duration
}

// Dispatcher implementa ports.Notifier con una cola acotada y workers propios.
// Notify nunca bloquea: si la cola está llena la notificación se descarta y se registra.
type Dispatcher struct {
	sender    Sender
	cfg       DispatcherConfig
	log       *logger.Logger
	ch        chan ports.Notification
	done      chan struct{}
	wg        sync.WaitGroup
	sent      atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

var _ ports.Notifier = (*Dispatcher)(nil)

// NewDispatcher arranca los workers.
func NewDispatcher(sender Sender, cfg DispatcherConfig, log *logger.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 20 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	d := &Dispatcher{
		sender: sender,
		cfg:    cfg,
		log:    log.Named("mail"),
		ch:     make(chan ports.Notification, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	d.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go d.run()
	}
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.ch:
			d.deliver(n)
		case <-d.done:
			for {
				select {
				case n := <-d.ch:
					d.deliver(n)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(n ports.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()
	if err := d.sender.Send(ctx, n); err != nil {
		d.failed.Add(1)
		d.log.Error().Err(err).Str("notification_id", n.ID).Str("to", n.To).Msg("envío de correo fallido")
		return
	}
	d.sent.Add(1)
	d.log.Debug().Str("notification_id", n.ID).Str("to", n.To).Msg("correo enviado")
}

// Notify encola la notificación.
func (d *Dispatcher) Notify(n ports.Notification) {
	if d == nil || d.closed.Load() {
		return
	}
	select {
	case d.ch <- n:
	case <-d.done:
	default:
		d.dropped.Add(1)
		d.log.Warn().Str("notification_id", n.ID).Str("to", n.To).Msg("cola de correo llena, notificación descartada")
	}
}

// Close deja de aceptar notificaciones y espera a que los workers vacíen la cola o a que venza ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
	})
	finished := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats contadores de envíos correctos, fallidos y descartados.
func (d *Dispatcher) Stats() (sent, failed, dropped uint64) {
	return d.sent.Load(), d.failed.Load(), d.dropped.Load()
}
