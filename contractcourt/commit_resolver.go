package contractcourt

import (
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// CommitResolution carries what's needed to sweep the to-local output of a
// commitment transaction we or the counterparty broadcast: our own
// CSV-delayed output on our own commitment, or our output on theirs
// (immediately spendable in the pre-anchor formats, behind a one-block CSV
// delay in the anchor formats; HasCsvDelay records which).
type CommitResolution struct {
	SelfOutpoint  wire.OutPoint
	SweepPkScript []byte
	SweepValue    int64
	HasCsvDelay   bool
}

// commitSweepResolver sweeps the to-local output of a published commitment
// transaction. Grounded on the teacher's craftCommitSweepTx, generalized
// from a one-shot helper into a resolver so a crash between broadcast and
// confirmation doesn't lose track of the output.
type commitSweepResolver struct {
	resolution CommitResolution

	outputIncubating bool
	resolved         bool
	broadcastHeight  uint32

	ResolverKit
}

// NewCommitSweepResolver constructs a resolver for a commitment's to-local
// output.
func NewCommitSweepResolver(res CommitResolution, broadcastHeight uint32,
	kit ResolverKit) ContractResolver {

	return &commitSweepResolver{
		resolution:      res,
		broadcastHeight: broadcastHeight,
		ResolverKit:     kit,
	}
}

func (c *commitSweepResolver) ResolverKey() []byte {
	return []byte(c.resolution.SelfOutpoint.String())
}

func (c *commitSweepResolver) Resolve() (ContractResolver, error) {
	if c.resolved {
		return nil, nil
	}

	if !c.outputIncubating {
		log.Tracef("%T(%v): sweeping commitment to-local output", c,
			c.resolution.SelfOutpoint)

		if _, err := c.Sweeper.SweepInput(
			c.resolution.SelfOutpoint, ClaimCommitToLocal,
			c.resolution.SweepPkScript, c.resolution.SweepValue,
		); err != nil {
			return nil, err
		}

		c.outputIncubating = true
		if err := c.Checkpoint(c); err != nil {
			log.Errorf("unable to checkpoint: %v", err)
			return nil, err
		}
	}

	spendNtfn, err := c.Notifier.RegisterSpendNtfn(
		&c.resolution.SelfOutpoint, c.resolution.SweepPkScript,
		c.broadcastHeight,
	)
	if err != nil {
		return nil, err
	}

	select {
	case _, ok := <-spendNtfn.Spend:
		if !ok {
			return nil, errResolverQuitting
		}
	case <-c.Quit:
		return nil, errResolverQuitting
	}

	c.resolved = true
	return nil, c.Checkpoint(c)
}

func (c *commitSweepResolver) Stop() {
	close(c.Quit)
}

func (c *commitSweepResolver) IsResolved() bool {
	return c.resolved
}

func (c *commitSweepResolver) Encode(w io.Writer) error {
	if err := writeOutPoint(w, &c.resolution.SelfOutpoint); err != nil {
		return err
	}
	if err := writeVarBytes(w, c.resolution.SweepPkScript); err != nil {
		return err
	}
	if err := binary.Write(w, endian, c.resolution.SweepValue); err != nil {
		return err
	}
	if err := binary.Write(w, endian, c.resolution.HasCsvDelay); err != nil {
		return err
	}
	if err := binary.Write(w, endian, c.outputIncubating); err != nil {
		return err
	}
	if err := binary.Write(w, endian, c.resolved); err != nil {
		return err
	}
	return binary.Write(w, endian, c.broadcastHeight)
}

func (c *commitSweepResolver) Decode(r io.Reader) error {
	if err := readOutPoint(r, &c.resolution.SelfOutpoint); err != nil {
		return err
	}
	pkScript, err := readVarBytes(r, 1024)
	if err != nil {
		return err
	}
	c.resolution.SweepPkScript = pkScript

	if err := binary.Read(r, endian, &c.resolution.SweepValue); err != nil {
		return err
	}
	if err := binary.Read(r, endian, &c.resolution.HasCsvDelay); err != nil {
		return err
	}
	if err := binary.Read(r, endian, &c.outputIncubating); err != nil {
		return err
	}
	if err := binary.Read(r, endian, &c.resolved); err != nil {
		return err
	}
	return binary.Read(r, endian, &c.broadcastHeight)
}

func (c *commitSweepResolver) AttachResolverKit(r ResolverKit) {
	c.ResolverKit = r
}

var _ ContractResolver = (*commitSweepResolver)(nil)
