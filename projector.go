package satchip

import (
	"fmt"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"github.com/twpayne/go-proj/v10"
)

// EPSGWGS84 is the EPSG code of geographic WGS84 coordinates.
const EPSGWGS84 = 4326

type crsPair struct {
	src int
	dst int
}

// A Projector transforms coordinates between EPSG coordinate reference
// systems. Coordinates are always {x, y}, i.e. {lon, lat} for EPSGWGS84. It is
// safe for concurrent use.
type Projector struct {
	mutex     sync.Mutex
	cacheSize int
	pjCache   *lru.Cache[crsPair, *proj.PJ]
}

// A ProjectorOption sets an option on a Projector.
type ProjectorOption func(*Projector)

// NewProjector returns a new Projector.
func NewProjector(options ...ProjectorOption) (*Projector, error) {
	p := &Projector{
		cacheSize: 64,
	}
	for _, option := range options {
		option(p)
	}

	var err error
	p.pjCache, err = lru.New[crsPair, *proj.PJ](p.cacheSize)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func WithProjCacheSize(cacheSize int) ProjectorOption {
	return func(p *Projector) {
		p.cacheSize = cacheSize
	}
}

// Transform transforms coords from src to dst in place.
func (p *Projector) Transform(src, dst int, coords [][]float64) error {
	if src == dst || len(coords) == 0 {
		return nil
	}
	pj, err := p.getPJCached(crsPair{src: src, dst: dst})
	if err != nil {
		return err
	}
	// PROJ uses the authority's axis order, which is {lat, lon} for EPSG:4326.
	if src == EPSGWGS84 {
		flipCoords(coords)
	}
	if err := pj.ForwardFloat64Slices(coords); err != nil {
		return fmt.Errorf("EPSG:%d to EPSG:%d: %w", src, dst, err)
	}
	if dst == EPSGWGS84 {
		flipCoords(coords)
	}
	return nil
}

// BoundTo4326 returns the EPSGWGS84 bound of bound in epsg, padded by buffer
// degrees on each side.
func (p *Projector) BoundTo4326(bound orb.Bound, epsg int, buffer float64) (orb.Bound, error) {
	corners := [][]float64{
		{bound.Min.X(), bound.Min.Y()},
		{bound.Min.X(), bound.Max.Y()},
		{bound.Max.X(), bound.Max.Y()},
		{bound.Max.X(), bound.Min.Y()},
	}
	if err := p.Transform(epsg, EPSGWGS84, corners); err != nil {
		return orb.Bound{}, err
	}
	result := orb.Bound{Min: orb.Point{corners[0][0], corners[0][1]}, Max: orb.Point{corners[0][0], corners[0][1]}}
	for _, corner := range corners[1:] {
		result = result.Extend(orb.Point{corner[0], corner[1]})
	}
	return result.Pad(buffer), nil
}

// getPJ returns a new PJ transforming from pair.src to pair.dst.
func (p *Projector) getPJ(pair crsPair) (*proj.PJ, error) {
	return proj.NewCRSToCRS(epsgString(pair.src), epsgString(pair.dst), nil)
}

// getPJCached returns the PJ for pair, using the cache if possible.
func (p *Projector) getPJCached(pair crsPair) (*proj.PJ, error) {
	if pj, ok := p.pjCache.Get(pair); ok {
		projCacheHits.Inc()
		return pj, nil
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if pj, ok := p.pjCache.Get(pair); ok {
		projCacheHits.Inc()
		return pj, nil
	}

	projCacheMisses.Inc()

	pj, err := p.getPJ(pair)
	if err != nil {
		return nil, err
	}

	if eviction := p.pjCache.Add(pair, pj); eviction {
		projCacheEvictions.Inc()
	}

	return pj, nil
}

func epsgString(epsg int) string {
	return "EPSG:" + strconv.Itoa(epsg)
}

func flipCoords(coords [][]float64) {
	for i, coord := range coords {
		coords[i][0], coords[i][1] = coord[1], coord[0]
	}
}
