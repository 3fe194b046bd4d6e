package testutils

import (
	"net/http/httptest"
	"path/filepath"

	"github.com/papercomputeco/keepsake/api"
	"github.com/papercomputeco/keepsake/pkg/memory"
	"github.com/papercomputeco/keepsake/pkg/profile"
	"github.com/papercomputeco/keepsake/pkg/semantic/local"
)

// APIServer is a keepsake API server over a local store rooted in a
// temporary directory.
type APIServer struct {
	*httptest.Server
	Orchestrator *memory.Orchestrator
}

// NewAPIServer starts an API server whose files live beneath dir. Close
// stops the server and the orchestrator.
func NewAPIServer(dir string) (*APIServer, error) {
	store, err := local.NewStore(local.Config{Dir: filepath.Join(dir, "memories")}, nil)
	if err != nil {
		return nil, err
	}
	profiles, err := profile.NewStore(profile.Config{
		ProfileDir:  filepath.Join(dir, "profiles"),
		EpisodicDir: filepath.Join(dir, "episodes"),
	}, nil)
	if err != nil {
		return nil, err
	}

	orch, err := memory.New(memory.Config{Store: store, Profiles: profiles})
	if err != nil {
		return nil, err
	}

	server, err := api.NewServer(api.Config{DisableMCP: true}, orch, nil)
	if err != nil {
		_ = orch.Close()
		return nil, err
	}

	return &APIServer{
		Server:       httptest.NewServer(server.Handler()),
		Orchestrator: orch,
	}, nil
}

func (s *APIServer) Close() {
	s.Server.Close()
	_ = s.Orchestrator.Close()
}
