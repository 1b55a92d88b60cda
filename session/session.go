package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/hashicorp/go-multierror"

	"github.com/f3rmion/icefrost/frost"
	"github.com/f3rmion/icefrost/log"
)

var (
	// ErrAborted means the session fell below threshold or was aborted by
	// the caller. It is terminal.
	ErrAborted = errors.New("session: aborted")
	// ErrNonceReuse means a signer was asked to sign a second time.
	ErrNonceReuse = errors.New("session: nonce already consumed")
	// ErrInvalidState means an operation was called out of order.
	ErrInvalidState = errors.New("session: invalid state for operation")
)

// DKGState is the state of a [DKGSession].
type DKGState int

// DKG states. Finalized and Aborted are terminal.
const (
	Round1Pending DKGState = iota
	Round1Complete
	Round2Pending
	Round2Complete
	Finalized
	Aborted
)

func (s DKGState) String() string {
	switch s {
	case Round1Pending:
		return "round1-pending"
	case Round1Complete:
		return "round1-complete"
	case Round2Pending:
		return "round2-pending"
	case Round2Complete:
		return "round2-complete"
	case Finalized:
		return "finalized"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("DKGState(%d)", int(s))
	}
}

// Option configures a session.
type Option func(*options)

type options struct {
	logger *log.Logger
}

// WithLogger sets the logger used by a session. Sessions log indices,
// states and accusation reasons, never key material.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DKGResult contains the output of a successful DKG ceremony.
type DKGResult struct {
	// KeyShare is this participant's long-term share. Store it securely;
	// it is required for signing.
	KeyShare *frost.KeyShare

	// PublicKeys holds the group key and every qualified participant's
	// verification share. It is identical for all qualified participants.
	PublicKeys *frost.PublicKeyPackage

	// Qualified lists the participants that survived the ceremony.
	Qualified []frost.ParticipantIndex
}

// DKGSession drives one participant through a DKG ceremony. Each round
// takes the encoded broadcasts of the previous round and returns what to
// broadcast next. Transport is the caller's concern.
//
// A DKGSession is not safe for concurrent use, and rounds must be called
// in order with the complete message set of the previous round.
type DKGSession struct {
	frost  *frost.FROST
	index  frost.ParticipantIndex
	rng    io.Reader
	logger *log.Logger

	state       DKGState
	participant *frost.Participant
	round1      map[frost.ParticipantIndex]*frost.Round1Message
	round2      map[frost.ParticipantIndex]*frost.Round2Message
	complaints  [][]byte // complaints this participant raised
	excluded    map[frost.ParticipantIndex]error
}

// NewDKGSession creates the session of participant index. rng supplies
// every random value the participant draws during the ceremony.
func NewDKGSession(f *frost.FROST, index frost.ParticipantIndex, rng io.Reader, opts ...Option) (*DKGSession, error) {
	o := newOptions(opts)

	p, err := f.NewParticipant(rng, index)
	if err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	s := &DKGSession{
		frost:       f,
		index:       index,
		rng:         rng,
		logger:      o.logger.WithParticipant("participant", uint32(index)),
		state:       Round1Pending,
		participant: p,
		round1:      make(map[frost.ParticipantIndex]*frost.Round1Message),
		round2:      make(map[frost.ParticipantIndex]*frost.Round2Message),
		excluded:    make(map[frost.ParticipantIndex]error),
	}
	s.round1[index] = p.Round1Message()
	return s, nil
}

// Index returns this participant's index.
func (s *DKGSession) Index() frost.ParticipantIndex { return s.index }

// State returns the current state.
func (s *DKGSession) State() DKGState { return s.state }

// Excluded returns every participant excluded so far with the reason.
func (s *DKGSession) Excluded() map[frost.ParticipantIndex]error {
	out := make(map[frost.ParticipantIndex]error, len(s.excluded))
	for i, err := range s.excluded {
		out[i] = err
	}
	return out
}

// Qualified returns the sorted indices not excluded so far.
func (s *DKGSession) Qualified() []frost.ParticipantIndex {
	var out []frost.ParticipantIndex
	for i := range s.round1 {
		if _, bad := s.excluded[i]; !bad {
			out = append(out, i)
		}
	}
	slices.Sort(out)
	return out
}

func (s *DKGSession) qualifiedRound1() []*frost.Round1Message {
	q := s.Qualified()
	out := make([]*frost.Round1Message, len(q))
	for k, i := range q {
		out[k] = s.round1[i]
	}
	return out
}

func (s *DKGSession) expect(state DKGState) error {
	if s.state != state {
		return fmt.Errorf("%w: %s, want %s", ErrInvalidState, s.state, state)
	}
	return nil
}

func (s *DKGSession) exclude(i frost.ParticipantIndex, reason error) {
	if _, done := s.excluded[i]; done {
		return
	}
	s.excluded[i] = reason
	s.logger.Warn("participant excluded", "culprit", uint32(i), "reason", reason)
}

// excludeAccused records the culprit of err if it is an accusation and
// reports whether it was.
func (s *DKGSession) excludeAccused(err error) bool {
	var acc *frost.Accusation
	if !errors.As(err, &acc) {
		return false
	}
	s.exclude(acc.Culprit, acc)
	return true
}

// checkQuorum aborts the session when fewer than t participants remain or
// this participant itself was excluded.
func (s *DKGSession) checkQuorum() error {
	_, self := s.excluded[s.index]
	remaining := len(s.Qualified())
	if !self && remaining >= s.frost.Threshold() {
		return nil
	}

	var merr *multierror.Error
	if self {
		merr = multierror.Append(merr, fmt.Errorf("%w: participant %d excluded", ErrAborted, s.index))
	} else {
		merr = multierror.Append(merr, fmt.Errorf("%w: %d of %d participants remain", ErrAborted, remaining, s.frost.Threshold()))
	}
	for _, i := range sortedKeys(s.excluded) {
		merr = multierror.Append(merr, s.excluded[i])
	}
	s.logger.Error("session aborted", "remaining", remaining, "threshold", s.frost.Threshold())
	s.Abort()
	return merr
}

// Round1 returns this participant's encoded round 1 broadcast.
func (s *DKGSession) Round1() ([]byte, error) {
	if err := s.expect(Round1Pending); err != nil {
		return nil, err
	}
	return s.round1[s.index].MarshalBinary()
}

// ProcessRound1 verifies the round 1 broadcasts of the other participants.
// A participant whose message is missing, malformed or carries an invalid
// proof is excluded. A message that cannot be decoded is dropped, so its
// sender ends up excluded as missing. The session aborts if fewer than t
// participants remain.
func (s *DKGSession) ProcessRound1(msgs [][]byte) error {
	if err := s.expect(Round1Pending); err != nil {
		return err
	}

	own, err := s.round1[s.index].MarshalBinary()
	if err != nil {
		return err
	}
	received := make(map[frost.ParticipantIndex][]byte)

	for _, data := range msgs {
		m, err := frost.UnmarshalRound1Message(s.frost.Group(), data)
		if err != nil {
			s.logger.Warn("dropping undecodable round 1 message", "err", err)
			continue
		}
		if m.Index == s.index {
			if !bytes.Equal(data, own) {
				s.logger.Warn("round 1 message under own index differs from own")
			}
			continue
		}
		if prev, dup := received[m.Index]; dup {
			if !bytes.Equal(prev, data) {
				s.exclude(m.Index, &frost.Accusation{
					Culprit: m.Index,
					Reason:  fmt.Errorf("%w: conflicting round 1 messages", frost.ErrDuplicateParticipantIndex),
				})
			}
			continue
		}
		received[m.Index] = data

		if err := s.frost.VerifyRound1(m); err != nil {
			if !s.excludeAccused(err) {
				s.logger.Warn("dropping round 1 message", "err", err)
			}
			continue
		}
		s.round1[m.Index] = m
	}

	for i := 1; i <= s.frost.Total(); i++ {
		idx := frost.ParticipantIndex(i)
		if _, ok := s.round1[idx]; ok {
			continue
		}
		s.exclude(idx, &frost.Accusation{Culprit: idx, Reason: fmt.Errorf("%w: no round 1 message", frost.ErrMalformedMessage)})
	}
	for i := range s.excluded {
		delete(s.round1, i)
	}

	if err := s.checkQuorum(); err != nil {
		return err
	}
	s.state = Round1Complete
	s.logger.Info("round 1 complete", "qualified", len(s.round1))
	return nil
}

// Round2 encrypts this participant's shares to every qualified peer and
// returns the encoded bundle to broadcast.
func (s *DKGSession) Round2() ([]byte, error) {
	if err := s.expect(Round1Complete); err != nil {
		return nil, err
	}
	m, err := s.frost.Round2(s.rng, s.participant, s.qualifiedRound1())
	if err != nil {
		return nil, err
	}
	data, err := m.MarshalBinary()
	if err != nil {
		return nil, err
	}
	s.round2[s.index] = m
	s.state = Round2Pending
	return data, nil
}

// ProcessRound2 checks every qualified dealer's bundle and opens the share
// addressed to this participant. A dealer with a missing or ill-formed
// bundle is excluded at once. For every share that fails verification an
// encoded complaint is returned; the caller must broadcast them so every
// participant can resolve them in [DKGSession.Finalize].
func (s *DKGSession) ProcessRound2(msgs [][]byte) ([][]byte, error) {
	if err := s.expect(Round2Pending); err != nil {
		return nil, err
	}

	qualified := s.Qualified()
	received := make(map[frost.ParticipantIndex][]byte)
	for _, data := range msgs {
		m, err := frost.UnmarshalRound2Message(data)
		if err != nil {
			s.logger.Warn("dropping undecodable round 2 message", "err", err)
			continue
		}
		if m.Sender == s.index {
			continue
		}
		if _, ok := s.round1[m.Sender]; !ok {
			continue
		}
		if prev, dup := received[m.Sender]; dup {
			if !bytes.Equal(prev, data) {
				s.exclude(m.Sender, &frost.Accusation{
					Culprit: m.Sender,
					Reason:  fmt.Errorf("%w: conflicting round 2 messages", frost.ErrDuplicateParticipantIndex),
				})
			}
			continue
		}
		received[m.Sender] = data
		if err := s.frost.CheckRound2(m, qualified); err != nil {
			if !s.excludeAccused(err) {
				return nil, err
			}
			continue
		}
		s.round2[m.Sender] = m
	}

	for _, sender := range qualified {
		if sender == s.index {
			continue
		}
		if _, bad := s.excluded[sender]; bad {
			continue
		}
		m, ok := s.round2[sender]
		if !ok {
			s.exclude(sender, &frost.Accusation{Culprit: sender, Reason: fmt.Errorf("%w: no round 2 message", frost.ErrMissingShare)})
			continue
		}

		es := m.Share(s.index)
		err := s.frost.ReceiveShare(s.participant, s.round1[sender], es)
		if err == nil {
			continue
		}
		var acc *frost.Accusation
		if !errors.As(err, &acc) {
			return nil, err
		}
		c, err := s.frost.NewComplaint(s.rng, s.participant, s.round1[sender], es)
		if err != nil {
			return nil, fmt.Errorf("failed to build complaint against %d: %w", sender, err)
		}
		data, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		s.logger.Warn("share rejected, raising complaint", "accused", uint32(sender), "reason", acc.Reason)
		s.complaints = append(s.complaints, data)
	}
	for i := range s.excluded {
		delete(s.round2, i)
	}

	if err := s.checkQuorum(); err != nil {
		return nil, err
	}
	s.state = Round2Complete
	return slices.Clone(s.complaints), nil
}

// Finalize resolves every broadcast complaint, including this
// participant's own, excludes each culprit and derives the key share from
// the participants that remain.
//
// Every distinct complaint is ruled on by itself from public data, even
// when its accused is already excluded, so participants holding the same
// broadcasts reach the same qualified set whatever order the complaints
// arrive in. Only byte-identical complaints are merged. Complaints carry
// no signature: authenticating the broadcast channel, so that a complaint
// under index i really comes from i, is the transport's job.
func (s *DKGSession) Finalize(complaints [][]byte) (*DKGResult, error) {
	if err := s.expect(Round2Complete); err != nil {
		return nil, err
	}

	distinct := make(map[string]struct{})
	for _, data := range append(slices.Clone(s.complaints), complaints...) {
		distinct[string(data)] = struct{}{}
	}
	ordered := make([]string, 0, len(distinct))
	for data := range distinct {
		ordered = append(ordered, data)
	}
	slices.Sort(ordered)

	culprits := make(map[frost.ParticipantIndex]*frost.Accusation)
	for _, data := range ordered {
		acc := s.resolve([]byte(data))
		if acc == nil {
			continue
		}
		if _, seen := culprits[acc.Culprit]; !seen {
			culprits[acc.Culprit] = acc
		}
	}
	for _, i := range sortedKeys(culprits) {
		s.exclude(i, culprits[i])
	}

	if err := s.checkQuorum(); err != nil {
		return nil, err
	}

	share, pub, err := s.frost.Finalize(s.participant, s.qualifiedRound1())
	if err != nil {
		s.Abort()
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}
	s.participant = nil
	s.state = Finalized

	qualified := s.Qualified()
	s.logger.Info("dkg finalized", "qualified", len(qualified))
	return &DKGResult{
		KeyShare:   share,
		PublicKeys: pub,
		Qualified:  qualified,
	}, nil
}

// resolve rules on one encoded complaint. It returns nil when the
// complaint cannot be decoded or refers to messages this participant does
// not hold.
func (s *DKGSession) resolve(data []byte) *frost.Accusation {
	c, err := frost.UnmarshalComplaint(s.frost.Group(), data)
	if err != nil {
		s.logger.Warn("dropping undecodable complaint", "err", err)
		return nil
	}
	accuser, ok1 := s.round1[c.Accuser]
	accused, ok2 := s.round1[c.Accused]
	bundle, ok3 := s.round2[c.Accused]
	if !ok1 || !ok2 || !ok3 {
		s.logger.Warn("dropping complaint outside the transcript", "accuser", uint32(c.Accuser), "accused", uint32(c.Accused))
		return nil
	}
	es := bundle.Share(c.Accuser)
	if es == nil {
		return nil
	}

	acc, err := s.frost.ResolveComplaint(c, accuser, accused, es)
	if err != nil {
		s.logger.Warn("dropping complaint", "accuser", uint32(c.Accuser), "accused", uint32(c.Accused), "err", err)
		return nil
	}
	s.logger.Info("complaint resolved", "accuser", uint32(c.Accuser), "accused", uint32(c.Accused), "culprit", uint32(acc.Culprit))
	return acc
}

// Abort releases the participant's secrets and moves the session to
// Aborted. It is safe to call in any state.
func (s *DKGSession) Abort() {
	if s.participant != nil {
		s.participant.Zeroize()
		s.participant = nil
	}
	if s.state != Finalized {
		s.state = Aborted
	}
}

func sortedKeys[V any](m map[frost.ParticipantIndex]V) []frost.ParticipantIndex {
	out := make([]frost.ParticipantIndex, 0, len(m))
	for i := range m {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}
