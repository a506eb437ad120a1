package core

import (
	"fmt"

	"github.com/illarion/kakadu/internal/vault"
)

// MergeResult reports what Merge grafted into the vault.
type MergeResult struct {
	Groups  int
	Records int
}

// Merge copies every group and record of src under parentID, giving each
// a fresh id from the shared id space. Top-level groups of src, and entries
// whose parent is not in src, are attached to parentID. parentID must be 0
// or an existing group. On error the held vault is unchanged.
func (s *Store) Merge(parentID uint32, src *vault.Data) (MergeResult, error) {
	var (
		res     MergeResult
		groups  []vault.Group
		touched = make(map[uint32][]vault.Record)
	)
	err := s.critical(true, func() error {
		if parentID != 0 && s.data.FindGroup(parentID) == nil {
			return fmt.Errorf("group %d: %w", parentID, ErrNotFound)
		}

		dst := s.data.Clone()
		ids := make(map[uint32]uint32, len(src.Groups))
		for _, g := range src.Groups {
			created, err := dst.AddGroup(0, g.Name)
			if err != nil {
				return err
			}
			ids[g.ID] = created.ID
		}
		remap := func(pid uint32) uint32 {
			if id, ok := ids[pid]; ok {
				return id
			}
			return parentID
		}
		for _, g := range src.Groups {
			dst.FindGroup(ids[g.ID]).PID = remap(g.PID)
		}
		for _, sr := range src.Records {
			in := RecordInput{
				Name:           sr.Name,
				Login:          sr.Login,
				Password:       sr.Password,
				URL:            sr.URL,
				LoginSymbol:    sr.LoginSymbol,
				PasswordSymbol: sr.PasswordSymbol,
				URLSymbol:      sr.URLSymbol,
			}
			r, err := in.record(0, remap(sr.PID))
			if err != nil {
				return err
			}
			if _, err := dst.AddRecord(r); err != nil {
				return err
			}
			touched[r.PID] = nil
		}

		s.data = dst
		res = MergeResult{Groups: len(src.Groups), Records: len(src.Records)}
		groups = s.groupsLocked()
		for pid := range touched {
			touched[pid] = s.data.RecordsIn(pid)
		}
		return nil
	})
	if err != nil {
		return MergeResult{}, err
	}

	s.logger.Info("merged vault data", "pid", parentID, "groups", res.Groups, "records", res.Records)
	s.notifyGroups(groups)
	for pid, records := range touched {
		s.notifyRecords(pid, records)
	}
	return res, nil
}
