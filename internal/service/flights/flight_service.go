package flights

import (
	"context"
	"strings"

	"github.com/Domenick1991/travelbooking/internal/afs"
	"github.com/Domenick1991/travelbooking/internal/cache"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"go.uber.org/zap"
)

type FlightUseCase interface {
	Search(ctx context.Context, params afs.SearchParams) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
}

// Gateway is the subset of the flight API the service needs.
type Gateway interface {
	Search(ctx context.Context, params afs.SearchParams) ([]domain.Flight, error)
	GetFlight(ctx context.Context, id string) (*domain.Flight, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context, search string) ([]domain.Flight, error)
	SetFlights(ctx context.Context, search string, flights []domain.Flight) error
}

type FlightService struct {
	gateway Gateway
	cache   FlightCache
	log     *zap.Logger
}

func NewFlightService(gateway Gateway, cache FlightCache, log *zap.Logger) *FlightService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FlightService{gateway: gateway, cache: cache, log: log}
}

// Search serves repeated queries from the cache; cache failures fall through to the API.
func (s *FlightService) Search(ctx context.Context, params afs.SearchParams) ([]domain.Flight, error) {
	params.Origin = strings.ToUpper(strings.TrimSpace(params.Origin))
	params.Destination = strings.ToUpper(strings.TrimSpace(params.Destination))
	params.Date = strings.TrimSpace(params.Date)
	key := cache.SearchKey(params.Origin, params.Destination, params.Date)

	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx, key)
		if err != nil {
			s.log.Warn("flight cache read failed", zap.String("key", key), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	flights, err := s.gateway.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, key, flights); err != nil {
			s.log.Warn("flight cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.gateway.GetFlight(ctx, id)
}

var _ FlightUseCase = (*FlightService)(nil)
