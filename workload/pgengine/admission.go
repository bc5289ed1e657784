package pgengine

import (
	"context"

	"github.com/lobsterload/lobsterload/workload/pgengine/internal/adapters"
)

// AdmitState is the outcome of polling an Admission.
type AdmitState int

const (
	// NotReady means no connection is held yet; poll again later. The
	// caller's own scheduler decides when to retry or back off.
	NotReady AdmitState = iota

	// Ready means a connection is held and must be consumed with
	// TakeConn before the next request is started.
	Ready
)

type admissionPhase int

const (
	phaseEmpty admissionPhase = iota
	phaseAcquiring
	phaseHolding
)

type acquireResult struct {
	conn adapters.Conn
	err  error
}

// Admission gates one worker's access to the connection pool. It
// decouples admission control from request execution: TryAdmit starts and
// polls an asynchronous checkout without ever blocking, so a surrounding
// scheduler can bound in-flight requests to the pool's capacity before it
// even knows which page handler will run.
//
// An Admission belongs to exactly one worker goroutine and is not safe
// for concurrent use.
type Admission struct {
	pool    adapters.Pool
	phase   admissionPhase
	pending chan acquireResult
	held    adapters.Conn
}

// NewAdmission creates an admission gate over the engine's pool. Create
// one per worker.
func (e *Engine) NewAdmission() *Admission {
	return &Admission{pool: e.pool}
}

// TryAdmit polls the connection checkout. It returns Ready once a
// connection is held; until then it returns NotReady and must be called
// again. A failed checkout resets the gate and surfaces the error -- the
// pool-closed case satisfies errors.Is with workload.ErrPoolClosed and is
// the expected way workers learn about shutdown.
func (a *Admission) TryAdmit(ctx context.Context) (AdmitState, error) {
	for {
		switch a.phase {
		case phaseEmpty:
			pending := make(chan acquireResult, 1)
			go func() {
				conn, err := a.pool.Acquire(ctx)
				pending <- acquireResult{conn: conn, err: err}
			}()

			a.pending = pending
			a.phase = phaseAcquiring

		case phaseAcquiring:
			select {
			case result := <-a.pending:
				a.pending = nil
				if result.err != nil {
					a.phase = phaseEmpty
					return NotReady, result.err
				}

				a.held = result.conn
				a.phase = phaseHolding

			default:
				return NotReady, nil
			}

		case phaseHolding:
			return Ready, nil
		}
	}
}

// Abandon releases whatever the gate holds or still has in flight. A
// worker that stops polling before consuming readiness must call it, or
// a connection delivered after the last poll would never return to the
// pool.
func (a *Admission) Abandon() {
	switch a.phase {
	case phaseAcquiring:
		go func(pending chan acquireResult) {
			if result := <-pending; result.err == nil {
				result.conn.Release()
			}
		}(a.pending)
		a.pending = nil

	case phaseHolding:
		a.held.Release()
		a.held = nil
	}

	a.phase = phaseEmpty
}

// TakeConn consumes the readiness observed via TryAdmit and yields the
// held connection. Calling it in any other state is a programming error
// and panics: the contract guarantees callers only take immediately after
// seeing Ready.
func (a *Admission) TakeConn() Conn {
	if a.phase != phaseHolding {
		panic("TakeConn called without a Ready admission")
	}

	conn := a.held
	a.held = nil
	a.phase = phaseEmpty

	return Conn{c: conn}
}
