package app

import (
	"encoding/json"
	"os"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// Genesis file format, compatible with the subset of the tendermint
// genesis file that the application reads.
type Genesis struct {
	ChainID  string          `json:"chain_id"`
	AppState json.RawMessage `json:"app_state"`
}

// Validate checks the chain id and that the app state is a JSON object.
func (g *Genesis) Validate() error {
	if !weave.IsValidChainID(g.ChainID) {
		return errors.Wrapf(errors.ErrInput, "chain id %q", g.ChainID)
	}
	var opts weave.Options
	if err := json.Unmarshal(g.AppState, &opts); err != nil {
		return errors.Wrapf(errors.ErrInput, "app state: %s", err)
	}
	return nil
}

// LoadGenesis reads and validates a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "read genesis: %s", err)
	}
	var g Genesis
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "parse genesis: %s", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Save writes the genesis file, refusing to overwrite an existing one.
func (g *Genesis) Save(path string) error {
	if err := g.Validate(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "marshal genesis: %s", err)
	}
	fd, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errors.Wrapf(errors.ErrDuplicate, "genesis file %s", path)
		}
		return errors.Wrapf(errors.ErrInput, "create genesis: %s", err)
	}
	defer fd.Close()
	if _, err := fd.Write(raw); err != nil {
		return errors.Wrapf(errors.ErrInput, "write genesis: %s", err)
	}
	return nil
}

// InitFromGenesis loads the genesis into a fresh application and commits
// it as the initial state. Applications that were already initialized are
// left untouched and report ErrState.
func (b *BaseApp) InitFromGenesis(g *Genesis) error {
	if b.GetChainID() != "" {
		return errors.Wrapf(errors.ErrState, "already initialized for chain %s", b.GetChainID())
	}
	if err := b.InitState(g.ChainID, g.AppState); err != nil {
		return err
	}
	b.Commit()
	return nil
}
