package resolver

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// RouteKey identifies one logical backend operation.
type RouteKey string

const (
	Accounts             RouteKey = "accounts"
	Categories           RouteKey = "categories"
	Transactions         RouteKey = "transactions"
	Plans                RouteKey = "plans"
	DashboardResumo      RouteKey = "dashboardResumo"
	DashboardFluxo       RouteKey = "dashboardFluxo"
	DashboardDespesas    RouteKey = "dashboardDespesas"
	DashboardSerieMensal RouteKey = "dashboardSerieMensal"
	PlanProjection       RouteKey = "planProjection"
	Recurrences          RouteKey = "recurrences"
	SettingsProfile      RouteKey = "settingsProfile"
	SettingsPassword     RouteKey = "settingsPassword"
)

var allRouteKeys = []RouteKey{
	Accounts,
	Categories,
	Transactions,
	Plans,
	DashboardResumo,
	DashboardFluxo,
	DashboardDespesas,
	DashboardSerieMensal,
	PlanProjection,
	Recurrences,
	SettingsProfile,
	SettingsPassword,
}

var (
	ErrUnknownRouteKey = errors.New("unknown route key")
	ErrEmptyCandidates = errors.New("route key has no candidate paths")
)

// AllRouteKeys returns every route key in declaration order.
func AllRouteKeys() []RouteKey {
	return append([]RouteKey(nil), allRouteKeys...)
}

// Valid reports whether k belongs to the closed set of route keys.
func (k RouteKey) Valid() bool {
	for _, known := range allRouteKeys {
		if k == known {
			return true
		}
	}
	return false
}

func (k RouteKey) String() string { return string(k) }

// ParseRouteKey validates s as a route key.
func ParseRouteKey(s string) (RouteKey, error) {
	k := RouteKey(strings.TrimSpace(s))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRouteKey, s)
	}
	return k, nil
}

// Candidates maps each route key to the paths to probe, most preferred first.
type Candidates map[RouteKey][]string

// DefaultCandidates returns the built-in table: the portuguese spelling, the
// english spelling, then both again under /api.
func DefaultCandidates() Candidates {
	return Candidates{
		Accounts:     {"/contas", "/accounts", "/api/contas", "/api/accounts"},
		Categories:   {"/categorias", "/categories", "/api/categorias", "/api/categories"},
		Transactions: {"/transacoes", "/transactions", "/api/transacoes", "/api/transactions"},
		Plans:        {"/planos", "/plans", "/api/planos", "/api/plans"},
		DashboardResumo: {
			"/dashboard/resumo",
			"/dashboard/summary",
			"/api/dashboard/resumo",
			"/api/dashboard/summary",
		},
		DashboardFluxo: {
			"/dashboard/fluxo-diario",
			"/dashboard/daily-flow",
			"/api/dashboard/fluxo-diario",
			"/api/dashboard/daily-flow",
		},
		DashboardDespesas: {
			"/dashboard/despesas-por-categoria",
			"/dashboard/expenses-by-category",
			"/api/dashboard/despesas-por-categoria",
			"/api/dashboard/expenses-by-category",
		},
		DashboardSerieMensal: {
			"/dashboard/serie-mensal",
			"/dashboard/monthly-series",
			"/api/dashboard/serie-mensal",
			"/api/dashboard/monthly-series",
		},
		PlanProjection: {
			"/planos/projecao-mensal",
			"/plans/monthly-projection",
			"/api/planos/projecao-mensal",
			"/api/plans/monthly-projection",
		},
		Recurrences: {
			"/configuracoes/recorrencias",
			"/settings/recurrences",
			"/api/configuracoes/recorrencias",
			"/api/settings/recurrences",
		},
		SettingsProfile: {
			"/configuracoes/perfil",
			"/settings/profile",
			"/api/configuracoes/perfil",
			"/api/settings/profile",
		},
		SettingsPassword: {
			"/configuracoes/senha",
			"/settings/password",
			"/api/configuracoes/senha",
			"/api/settings/password",
		},
	}
}

// Clone returns a deep copy.
func (c Candidates) Clone() Candidates {
	out := make(Candidates, len(c))
	for k, paths := range c {
		out[k] = append([]string(nil), paths...)
	}
	return out
}

// Validate checks that every route key has at least one candidate and that
// the table holds no unknown keys.
func (c Candidates) Validate() error {
	var problems []error
	for k := range c {
		if !k.Valid() {
			problems = append(problems, fmt.Errorf("%w: %q", ErrUnknownRouteKey, k))
		}
	}
	for _, k := range allRouteKeys {
		if len(c[k]) == 0 {
			problems = append(problems, fmt.Errorf("%w: %s", ErrEmptyCandidates, k))
		}
	}
	return errors.Join(problems...)
}

// Merge returns a copy of c where the paths in extra take priority over the
// existing ones for the same key. Duplicates keep their first position.
func (c Candidates) Merge(extra Candidates) Candidates {
	out := c.Clone()
	for k, paths := range extra {
		merged := make([]string, 0, len(paths)+len(out[k]))
		seen := make(map[string]struct{}, cap(merged))
		for _, p := range append(append([]string(nil), paths...), out[k]...) {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			merged = append(merged, p)
		}
		out[k] = merged
	}
	return out
}

// LoadCandidatesFile reads extra candidates from a YAML file mapping route
// keys to path lists, for example:
//
//	accounts:
//	  - /v2/contas
//	recurrences:
//	  - /v2/recorrencias
func LoadCandidatesFile(path string) (Candidates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidates file: %w", err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing candidates file: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Candidates, len(raw))
	for _, name := range keys {
		key, err := ParseRouteKey(name)
		if err != nil {
			return nil, fmt.Errorf("candidates file %s: %w", path, err)
		}
		paths := make([]string, 0, len(raw[name]))
		for _, p := range raw[name] {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if !strings.HasPrefix(p, "/") {
				p = "/" + p
			}
			paths = append(paths, p)
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("candidates file %s: %w: %s", path, ErrEmptyCandidates, key)
		}
		out[key] = paths
	}
	return out, nil
}
