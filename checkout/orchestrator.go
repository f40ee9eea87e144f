package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shopfront/cart"
	"shopfront/models"
	"shopfront/orders"
	"shopfront/pay"
	"shopfront/pricing"
	"shopfront/rdx"
	"shopfront/utils"

	"go.uber.org/zap"
)

// Locker serialises operations on one key across every server instance.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Publisher is told about every checkout state change. Publish must not block.
type Publisher interface {
	Publish(checkoutID string, v View)
}

type Config struct {
	Currency string
	// PaymentTimeout bounds how long a gateway attempt may wait for its
	// callback before it is treated as dismissed.
	PaymentTimeout time.Duration
	// Retain is how long a finished or idle checkout stays readable.
	Retain time.Duration
}

// Orchestrator drives checkout attempts from billing through payment to a
// recorded order. The cart is cleared if and only if an order was recorded.
type Orchestrator struct {
	gateway  pay.Gateway
	recorder *orders.Recorder
	locker   Locker
	pub      Publisher
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	byCart   map[string]string
}

func NewOrchestrator(gateway pay.Gateway, recorder *orders.Recorder, locker Locker, pub Publisher, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.PaymentTimeout <= 0 {
		cfg.PaymentTimeout = 15 * time.Minute
	}
	if cfg.Retain <= 0 {
		cfg.Retain = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		gateway:  gateway,
		recorder: recorder,
		locker:   locker,
		pub:      pub,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
		byCart:   make(map[string]string),
	}
}

func (o *Orchestrator) lock(ctx context.Context, key string) (func(), error) {
	if o.locker == nil {
		return func() {}, nil
	}
	unlock, err := o.locker.Lock(ctx, key)
	if errors.Is(err, rdx.ErrLockHeld) {
		return nil, ErrCheckoutInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("checkout lock: %w", err)
	}
	return unlock, nil
}

// publish sends the current view of s. Callers hold s.mu.
func (o *Orchestrator) publish(s *Session) {
	if o.pub != nil {
		o.pub.Publish(s.id, s.view(o.cfg.Currency))
	}
}

func (o *Orchestrator) session(owner, id string) (*Session, error) {
	o.mu.Lock()
	s, ok := o.sessions[id]
	o.mu.Unlock()
	if !ok || s.owner != owner {
		return nil, ErrCheckoutNotFound
	}
	return s, nil
}

// Begin freezes the cart of cartSID and opens a checkout on it. An earlier
// unfinished checkout of the same cart is abandoned, unless it is waiting on
// a gateway payment, in which case ErrCheckoutInProgress is returned.
func (o *Orchestrator) Begin(ctx context.Context, owner, cartSID string, store *cart.Store) (View, error) {
	unlock, err := o.lock(ctx, "cart:"+cartSID)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	if store.Len() == 0 {
		return View{}, ErrEmptyCart
	}

	o.mu.Lock()
	prev := o.sessions[o.byCart[cartSID]]
	o.mu.Unlock()

	// prev.mu may be held through an order write; o.mu must not be.
	if prev != nil {
		prev.mu.Lock()
		if prev.state == StateAwaitingPayment && prev.method == models.PaymentGateway {
			prev.mu.Unlock()
			return View{}, ErrCheckoutInProgress
		}
		if !prev.state.IsTerminal() {
			prev.reason = "superseded by a new checkout"
			prev.finish(StateAbandoned, o.now())
			o.publish(prev)
		}
		prev.mu.Unlock()
	}

	// prev may have been confirmed while we waited, emptying the cart
	snap := store.Snapshot()
	if snap.IsEmpty() {
		return View{}, ErrEmptyCart
	}

	s := &Session{
		id:       "chk_" + utils.GetUUID(),
		owner:    owner,
		cartSID:  cartSID,
		store:    store,
		snapshot: snap,
		state:    StateCollectingBilling,
		done:     make(chan struct{}),
		updated:  o.now(),
	}
	v := s.view(o.cfg.Currency)
	o.logger.Info("checkout started",
		zap.String("checkout_id", s.id),
		zap.String("owner", owner),
		zap.String("subtotal", snap.Totals().Subtotal.String()),
	)

	o.mu.Lock()
	o.sessions[s.id] = s
	o.byCart[cartSID] = s.id
	o.mu.Unlock()

	if o.pub != nil {
		o.pub.Publish(s.id, v)
	}
	return v, nil
}

// Get returns the current view of a checkout owned by owner.
func (o *Orchestrator) Get(owner, id string) (View, error) {
	s, err := o.session(owner, id)
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(o.cfg.Currency), nil
}

// SubmitBilling validates billing and moves the checkout to payment. For the
// gateway method the payment widget is opened here; if that fails the
// checkout stays in CollectingBilling and the error wraps
// pay.ErrGatewayUnavailable.
func (o *Orchestrator) SubmitBilling(ctx context.Context, owner, id string, billing models.BillingDetails, method models.PaymentMethod) (View, error) {
	s, err := o.session(owner, id)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateCollectingBilling {
		return View{}, &TransitionError{Op: "submit billing", State: s.state}
	}
	if err := ValidateBilling(billing); err != nil {
		return View{}, err
	}
	if err := validateMethod(method); err != nil {
		return View{}, err
	}

	if method == models.PaymentCashOnDelivery {
		s.billing = billing
		s.method = method
		s.state = StateAwaitingPayment
		s.updated = o.now()
		o.publish(s)
		return s.view(o.cfg.Currency), nil
	}

	intent, err := o.gateway.Open(ctx, pay.Request{
		CheckoutID:       s.id,
		AmountMinorUnits: pricing.MinorUnits(s.snapshot.Totals().Subtotal),
		Currency:         o.cfg.Currency,
		Receipt:          s.id,
		Contact:          contactOf(billing),
	})
	if err != nil {
		o.logger.Warn("payment gateway could not be opened", zap.String("checkout_id", s.id), zap.Error(err))
		if !errors.Is(err, pay.ErrGatewayUnavailable) {
			err = fmt.Errorf("%w: %v", pay.ErrGatewayUnavailable, err)
		}
		return View{}, err
	}

	pending := pay.NewPending()
	s.billing = billing
	s.method = method
	s.intent = &intent
	s.pending = pending
	s.state = StateAwaitingPayment
	s.updated = o.now()

	go o.awaitPayment(s, pending)

	o.publish(s)
	return s.view(o.cfg.Currency), nil
}

// awaitPayment waits for the gateway callback. If none arrives within the
// payment timeout the attempt resolves as dismissed.
func (o *Orchestrator) awaitPayment(s *Session, pending *pay.Pending) {
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.PaymentTimeout)
	defer cancel()

	res, err := pending.Await(ctx)
	if err != nil {
		timedOut := pay.Dismissed()
		timedOut.Reason = "payment timed out"
		if pending.Resolve(timedOut) {
			o.logger.Info("payment timed out", zap.String("checkout_id", s.id))
		}
		res, _ = pending.Await(context.Background())
	}
	o.settle(s, pending, res)
}

func (o *Orchestrator) settle(s *Session, pending *pay.Pending, res pay.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingPayment || s.pending != pending {
		return
	}
	s.outcome = &res

	if res.Outcome == pay.OutcomeSuccess && res.Receipt != nil {
		o.confirm(context.Background(), s, res.Receipt.PaymentID)
		return
	}

	s.reason = res.Reason
	s.finish(StateAbandoned, o.now())
	o.logger.Info("checkout abandoned",
		zap.String("checkout_id", s.id),
		zap.String("outcome", string(res.Outcome)),
		zap.String("reason", res.Reason),
	)
	o.publish(s)
}

// confirm records the order and clears the cart. Callers hold s.mu.
func (o *Orchestrator) confirm(ctx context.Context, s *Session, paymentRef string) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	order := o.recorder.Create(s.snapshot, s.billing, s.method, paymentRef)
	order = o.recorder.Append(persistCtx, s.owner, order)
	s.store.Clear()

	s.order = &order
	s.finish(StateConfirmed, o.now())
	o.logger.Info("order placed",
		zap.String("checkout_id", s.id),
		zap.String("order_id", order.OrderID),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.String("total", order.TotalAmount.String()),
	)
	o.publish(s)
}

// ConfirmCashOnDelivery answers the cash-on-delivery prompt. Declining
// returns the checkout to CollectingBilling with no other effect.
// Repeating the call on a finished checkout returns its final view.
func (o *Orchestrator) ConfirmCashOnDelivery(ctx context.Context, owner, id string, yes bool) (View, error) {
	s, err := o.session(owner, id)
	if err != nil {
		return View{}, err
	}
	unlock, err := o.lock(ctx, "checkout:"+id)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsTerminal() {
		return s.view(o.cfg.Currency), nil
	}
	if s.state != StateAwaitingPayment || s.method != models.PaymentCashOnDelivery {
		return View{}, &TransitionError{Op: "confirm cash on delivery", State: s.state}
	}

	if !yes {
		s.state = StateCollectingBilling
		s.updated = o.now()
		o.publish(s)
		return s.view(o.cfg.Currency), nil
	}

	o.confirm(ctx, s, "")
	return s.view(o.cfg.Currency), nil
}

// ResolvePayment delivers the gateway outcome and waits until the checkout
// has settled on it. Only the first outcome counts; repeating the call on a
// finished checkout returns its final view.
func (o *Orchestrator) ResolvePayment(ctx context.Context, owner, id string, res pay.Result) (View, error) {
	s, err := o.session(owner, id)
	if err != nil {
		return View{}, err
	}
	unlock, err := o.lock(ctx, "checkout:"+id)
	if err != nil {
		return View{}, err
	}
	defer unlock()

	s.mu.Lock()
	if s.state.IsTerminal() {
		v := s.view(o.cfg.Currency)
		s.mu.Unlock()
		return v, nil
	}
	if s.state != StateAwaitingPayment || s.method != models.PaymentGateway || s.pending == nil {
		state := s.state
		s.mu.Unlock()
		return View{}, &TransitionError{Op: "resolve payment", State: state}
	}
	pending, done := s.pending, s.done
	s.mu.Unlock()

	pending.Resolve(res)

	select {
	case <-done:
	case <-ctx.Done():
		return View{}, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(o.cfg.Currency), nil
}

// Sweep abandons checkouts left idle in CollectingBilling or at the
// cash-on-delivery prompt, and forgets finished ones, both after the
// retention period. It returns how many checkouts were forgotten.
func (o *Orchestrator) Sweep() int {
	now := o.now()
	cutoff := now.Add(-o.cfg.Retain)

	o.mu.Lock()
	all := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		all = append(all, s)
	}
	o.mu.Unlock()

	var stale []*Session
	for _, s := range all {
		s.mu.Lock()
		if s.updated.Before(cutoff) {
			idle := s.state == StateCollectingBilling ||
				(s.state == StateAwaitingPayment && s.method == models.PaymentCashOnDelivery)
			if idle {
				s.reason = "checkout expired"
				s.finish(StateAbandoned, now)
				o.publish(s)
			}
			if s.state.IsTerminal() {
				stale = append(stale, s)
			}
		}
		s.mu.Unlock()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, s := range stale {
		if o.sessions[s.id] != s {
			continue
		}
		delete(o.sessions, s.id)
		if o.byCart[s.cartSID] == s.id {
			delete(o.byCart, s.cartSID)
		}
		n++
	}
	return n
}

// RunJanitor sweeps every interval until ctx is done.
func (o *Orchestrator) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := o.Sweep(); n > 0 {
				o.logger.Debug("forgot finished checkouts", zap.Int("count", n))
			}
		}
	}
}
