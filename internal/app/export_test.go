package service

import "github.com/okian/ctfboard/internal/domain/types"

// Guard exposes guard to the external test package.
func Guard(view types.View, build func() []types.TeamRow) ([]types.TeamRow, error) {
	return guard(view, build)
}
