// Package channelactor drives a single channelfsm.Machine on its own
// goroutine: it owns the inbound event queue, the periodic HTLC-timeout
// recheck, and the fan-out of every Output the machine returns into real
// collaborators (a peer connection, storage, the chain backend, and
// whatever else is subscribed to channel events).
//
// Grounded on the teacher's htlcswitch.Switch.htlcForwarder: one
// goroutine, one inbound channel, a select loop, and a periodic ticker
// doing housekeeping alongside the main dispatch (there it was forwarding
// stats; here it's the HTLC-timeout race check channelfsm.NewBlock would
// otherwise only catch on a fresh block).
package channelactor

import (
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/queue"
	"github.com/lightningnetwork/lnd/ticker"

	"github.com/lnchannel/lnchannel/channelfsm"
	"github.com/lnchannel/lnchannel/lnwire"
)

// Config bundles the actor's own operating parameters, distinct from
// channelfsm.Config's protocol policy knobs.
type Config struct {
	// HtlcTimeoutCheckInterval is how often the actor re-evaluates the
	// upstream-HTLC-timeout race independent of NewBlock events arriving,
	// as a defensive backstop against a missed or delayed block
	// notification.
	HtlcTimeoutCheckInterval time.Duration

	// TimerDurations maps a channelfsm.ScheduleTimer Output's Name to the
	// wall-clock duration the actor should wait before delivering the
	// matching TimerFired event back to the machine.
	TimerDurations map[string]time.Duration

	// QueueSize is the channel buffer size of the actor's inbound event
	// queue; events beyond it overflow into the queue's unbounded backlog
	// rather than being dropped or blocking Push.
	QueueSize int
}

const defaultTimerDuration = 2 * time.Minute

// Actor owns one channelfsm.Machine and is the only goroutine ever allowed
// to call its Step method, satisfying the Machine's single-writer
// requirement.
type Actor struct {
	chanID lnwire.ChannelID
	cfg    Config

	machine *channelfsm.Machine
	collabs Collaborators
	clock   clock.Clock

	inbound *queue.ConcurrentQueue

	blockHeight uint32
	blockMtx    sync.Mutex

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewActor constructs an Actor around an already-initialized machine. The
// machine's Commitments must already reflect the channel's last persisted
// state; NewActor does no I/O of its own.
func NewActor(chanID lnwire.ChannelID, cfg Config, machine *channelfsm.Machine,
	collabs Collaborators, startHeight uint32) *Actor {

	if cfg.QueueSize == 0 {
		cfg.QueueSize = 50
	}

	return &Actor{
		chanID:      chanID,
		cfg:         cfg,
		machine:     machine,
		collabs:     collabs,
		clock:       clock.NewDefaultClock(),
		inbound:     queue.NewConcurrentQueue(cfg.QueueSize),
		blockHeight: startHeight,
		quit:        make(chan struct{}),
	}
}

// Push enqueues an Event for the actor's goroutine to process. Safe to call
// from any goroutine.
func (a *Actor) Push(ev channelfsm.Event) {
	select {
	case a.inbound.ChanIn() <- ev:
	case <-a.quit:
	}
}

// Start launches the actor's dispatch goroutine.
func (a *Actor) Start() {
	a.inbound.Start()

	interval := a.cfg.HtlcTimeoutCheckInterval
	if interval == 0 {
		interval = 10 * time.Second
	}
	htlcTicker := ticker.New(interval)
	htlcTicker.Resume()

	a.wg.Add(1)
	go a.run(htlcTicker)
}

// Stop shuts the actor's goroutine down and waits for it to exit.
func (a *Actor) Stop() {
	close(a.quit)
	a.wg.Wait()
	a.inbound.Stop()
}

func (a *Actor) run(htlcTicker ticker.Ticker) {
	defer a.wg.Done()
	defer htlcTicker.Stop()

	for {
		select {
		case raw := <-a.inbound.ChanOut():
			ev, ok := raw.(channelfsm.Event)
			if !ok {
				log.Errorf("channel %x: dropping malformed "+
					"inbound event %T", a.chanID[:], raw)
				continue
			}
			a.dispatch(ev)

		case <-htlcTicker.Ticks():
			a.dispatch(channelfsm.NewBlock{Height: a.currentHeight()})

		case <-a.quit:
			return
		}
	}
}

func (a *Actor) currentHeight() uint32 {
	a.blockMtx.Lock()
	defer a.blockMtx.Unlock()
	return a.blockHeight
}

func (a *Actor) dispatch(ev channelfsm.Event) {
	if nb, ok := ev.(channelfsm.NewBlock); ok {
		a.blockMtx.Lock()
		a.blockHeight = nb.Height
		a.blockMtx.Unlock()
	}

	outs, err := a.machine.Step(ev, a.currentHeight())
	if err != nil {
		log.Errorf("channel %x: step %s failed: %v", a.chanID[:],
			ev.Name(), err)
	}

	for _, out := range outs {
		a.handleOutput(out)
	}
}

func (a *Actor) handleOutput(out channelfsm.Output) {
	switch o := out.(type) {
	case channelfsm.Persist:
		if err := a.collabs.Store.PersistChannel(
			a.chanID, a.machine.Commitments, a.machine.State,
		); err != nil {
			log.Errorf("channel %x: persist failed: %v",
				a.chanID[:], err)
		}

	case channelfsm.SendMessage:
		if err := a.collabs.Peer.SendMessage(o.Msg); err != nil {
			log.Errorf("channel %x: send failed: %v",
				a.chanID[:], err)
		}

	case channelfsm.PublishTx:
		if err := a.collabs.Publisher.PublishTransaction(
			o.Tx, o.Description,
		); err != nil {
			log.Errorf("channel %x: publish failed: %v",
				a.chanID[:], err)
		}

	case channelfsm.WatchTx:
		if err := a.collabs.Watcher.WatchTxConfirmed(
			o.TxID, o.Description,
		); err != nil {
			log.Errorf("channel %x: watch tx failed: %v",
				a.chanID[:], err)
		}

	case channelfsm.WatchOutputSpent:
		if err := a.collabs.Watcher.WatchOutputSpent(
			o.TxID, o.Index,
		); err != nil {
			log.Errorf("channel %x: watch output failed: %v",
				a.chanID[:], err)
		}

	case channelfsm.Notify:
		a.collabs.Notifier.NotifyChannelEvent(a.chanID, o.Event, o.Data)

	case channelfsm.ScheduleTimer:
		a.scheduleTimer(o.Name)

	default:
		log.Warnf("channel %x: unhandled output type %T", a.chanID[:], out)
	}
}

func (a *Actor) scheduleTimer(name string) {
	dur, ok := a.cfg.TimerDurations[name]
	if !ok {
		dur = defaultTimerDuration
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		select {
		case <-a.clock.TickAfter(dur):
			a.Push(channelfsm.TimerFired{Name: name})
		case <-a.quit:
		}
	}()
}
