package escrow

import (
	"math/big"
	"regexp"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/coin"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/orm"
)

const (
	// BucketName is the prefix of all escrows in the store.
	BucketName = "esc"

	maxNoteSize      = 128
	minDisputeReason = 10
)

var isEscrowID = regexp.MustCompile(`^[a-zA-Z0-9_.\-]{1,64}$`).MatchString

// Custody is the address holding the funds of all funded and not yet
// released escrows.
var Custody = weave.NewCondition("escrow", "seq", []byte("custody")).Address()

// Escrow is the state of a single two party payment.
//
// Fields:
//
//	1: string id
//	2: bytes client
//	3: bytes freelancer
//	4: bytes arbiter
//	5: string token
//	6: string amount (decimal)
//	7: bool funded
//	8: bool delivered
//	9: bool released
//	10: bool disputed
//	11: string delivery_note
//	12: string dispute_reason
type Escrow struct {
	ID            string
	Client        weave.Address
	Freelancer    weave.Address
	Arbiter       weave.Address
	Token         string
	Amount        *big.Int
	Funded        bool
	Delivered     bool
	Released      bool
	Disputed      bool
	DeliveryNote  string
	DisputeReason string
}

var _ orm.Model = (*Escrow)(nil)

// Validate ensures the escrow is valid
func (e *Escrow) Validate() error {
	var errs error
	if !isEscrowID(e.ID) {
		errs = errors.Append(errs, errors.Field("ID", errors.ErrInput, "invalid escrow id %q", e.ID))
	}
	errs = errors.AppendField(errs, "Client", e.Client.Validate())
	errs = errors.AppendField(errs, "Freelancer", e.Freelancer.Validate())
	errs = errors.AppendField(errs, "Arbiter", e.Arbiter.Validate())
	errs = errors.Append(errs, validateParties(e.Client, e.Freelancer, e.Arbiter))
	errs = errors.AppendField(errs, "Amount", validateAmount(e.Coin()))
	if len(e.DeliveryNote) > maxNoteSize {
		errs = errors.Append(errs, errors.Field("DeliveryNote", errors.ErrInput, "longer than %d", maxNoteSize))
	}
	errs = errors.AppendField(errs, "DisputeReason", validateReason(e.DisputeReason))

	switch {
	case e.Delivered && !e.Funded:
		errs = errors.Append(errs, errors.Wrap(errors.ErrState, "delivered before funded"))
	case e.Disputed && !e.Funded:
		errs = errors.Append(errs, errors.Wrap(errors.ErrState, "disputed before funded"))
	case e.Released && !e.Funded:
		errs = errors.Append(errs, errors.Wrap(errors.ErrState, "released before funded"))
	case e.Released && !e.Delivered && !e.Disputed:
		errs = errors.Append(errs, errors.Wrap(errors.ErrState, "released without delivery or dispute"))
	}
	return errs
}

// Copy returns an independent copy of the escrow.
func (e *Escrow) Copy() orm.CloneableData {
	cp := *e
	cp.Client = append(weave.Address(nil), e.Client...)
	cp.Freelancer = append(weave.Address(nil), e.Freelancer...)
	cp.Arbiter = append(weave.Address(nil), e.Arbiter...)
	if e.Amount != nil {
		cp.Amount = new(big.Int).Set(e.Amount)
	}
	return &cp
}

// Coin returns the amount locked by this escrow.
func (e *Escrow) Coin() coin.Coin {
	return coin.Coin{Ticker: e.Token, Amount: e.Amount}
}

// Marshal encodes the escrow.
func (e *Escrow) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.String(1, e.ID)
	w.Bytes(2, e.Client)
	w.Bytes(3, e.Freelancer)
	w.Bytes(4, e.Arbiter)
	w.String(5, e.Token)
	if e.Amount != nil {
		w.String(6, e.Amount.String())
	}
	w.Bool(7, e.Funded)
	w.Bool(8, e.Delivered)
	w.Bool(9, e.Released)
	w.Bool(10, e.Disputed)
	w.String(11, e.DeliveryNote)
	w.String(12, e.DisputeReason)
	return w.Result()
}

// Unmarshal decodes the escrow.
func (e *Escrow) Unmarshal(raw []byte) error {
	*e = Escrow{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			e.ID, err = f.String()
		case 2:
			e.Client, err = f.Bytes()
		case 3:
			e.Freelancer, err = f.Bytes()
		case 4:
			e.Arbiter, err = f.Bytes()
		case 5:
			e.Token, err = f.String()
		case 6:
			var s string
			if s, err = f.String(); err != nil {
				return err
			}
			amount, ok := new(big.Int).SetString(s, 10)
			if !ok {
				return errors.Wrapf(errors.ErrInput, "amount %q", s)
			}
			e.Amount = amount
		case 7:
			e.Funded, err = f.Bool()
		case 8:
			e.Delivered, err = f.Bool()
		case 9:
			e.Released, err = f.Bool()
		case 10:
			e.Disputed, err = f.Bool()
		case 11:
			e.DeliveryNote, err = f.String()
		case 12:
			e.DisputeReason, err = f.String()
		}
		return err
	})
}

func validateParties(client, freelancer, arbiter weave.Address) error {
	switch {
	case client.Equals(freelancer):
		return errors.Field("Freelancer", errors.ErrInput, "freelancer is the client")
	case client.Equals(arbiter):
		return errors.Field("Arbiter", errors.ErrInput, "arbiter is the client")
	case freelancer.Equals(arbiter):
		return errors.Field("Arbiter", errors.ErrInput, "arbiter is the freelancer")
	}
	return nil
}

func validateAmount(c coin.Coin) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "%s is not positive", c)
	}
	return nil
}

func validateReason(reason string) error {
	switch n := len(reason); {
	case n == 0:
		return nil
	case n < minDisputeReason:
		return errors.Wrapf(errors.ErrInput, "reason shorter than %d", minDisputeReason)
	case n > maxNoteSize:
		return errors.Wrapf(errors.ErrInput, "reason longer than %d", maxNoteSize)
	}
	return nil
}

// Bucket stores escrows by id, indexed by every participant, and the
// number of escrows ever created.
type Bucket struct {
	orm.ModelBucket
	count orm.Counter
}

// NewBucket returns the bucket all escrows are stored in.
func NewBucket() Bucket {
	b := orm.NewBucket(BucketName, orm.NewSimpleObj(nil, &Escrow{})).
		WithIndex(RoleClient, idxClient, false).
		WithIndex(RoleFreelancer, idxFreelancer, false).
		WithIndex(RoleArbiter, idxArbiter, false)
	return Bucket{
		ModelBucket: orm.NewModelBucket(b),
		count:       b.Counter("count"),
	}
}

// Count returns the number of escrows ever created.
func (b Bucket) Count(db weave.ReadOnlyKVStore) (uint32, error) {
	return b.count.Value(db)
}

// Create stores a new escrow and increments the counter. It fails with
// ErrDuplicate if the id is taken.
func (b Bucket) Create(db weave.KVStore, e *Escrow) error {
	switch err := b.Has(db, []byte(e.ID)); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "escrow %q", e.ID)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	if err := b.Put(db, []byte(e.ID), e); err != nil {
		return err
	}
	if _, err := b.count.Increment(db); err != nil {
		return errors.Wrap(err, "escrow count")
	}
	return nil
}

// Load returns the escrow with given id.
func (b Bucket) Load(db weave.ReadOnlyKVStore, id string) (*Escrow, error) {
	var e Escrow
	if err := b.One(db, []byte(id), &e); err != nil {
		return nil, errors.Wrapf(err, "escrow %q", id)
	}
	return &e, nil
}

// Save persists an existing escrow.
func (b Bucket) Save(db weave.KVStore, e *Escrow) error {
	return b.Put(db, []byte(e.ID), e)
}

func toEscrow(obj orm.Object) (*Escrow, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "Cannot take index of nil")
	}
	esc, ok := obj.Value().(*Escrow)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "Can only take index of Escrow")
	}
	return esc, nil
}

func idxClient(obj orm.Object) ([]byte, error) {
	esc, err := toEscrow(obj)
	if err != nil {
		return nil, err
	}
	return esc.Client, nil
}

func idxFreelancer(obj orm.Object) ([]byte, error) {
	esc, err := toEscrow(obj)
	if err != nil {
		return nil, err
	}
	return esc.Freelancer, nil
}

func idxArbiter(obj orm.Object) ([]byte, error) {
	esc, err := toEscrow(obj)
	if err != nil {
		return nil, err
	}
	return esc.Arbiter, nil
}

// Roles escrows can be listed by.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleArbiter    = "arbiter"
)

// ByParty returns all escrows in which given address takes given role.
func (b Bucket) ByParty(db weave.ReadOnlyKVStore, role string, addr weave.Address) ([]*Escrow, error) {
	var res []*Escrow
	if err := b.ByIndex(db, role, addr, &res); err != nil {
		return nil, err
	}
	return res, nil
}
