package game

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultLoadDelay = 1000 * time.Millisecond

type LoadResult struct {
	Catalog *Catalog
	Err     error
}

// Loader produces the catalog after a simulated latency standing in for real
// asset loading.
type Loader struct {
	Source CatalogSource
	Delay  time.Duration
	Sounds map[string]Sound
	log    *logrus.Logger
}

func NewLoader(source CatalogSource, delay time.Duration, log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Loader{
		Source: source,
		Delay:  delay,
		Sounds: DefaultSounds(),
		log:    log,
	}
}

func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	if l.Delay > 0 {
		timer := time.NewTimer(l.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("load assets: %w", ctx.Err())
		}
	}
	cards, err := l.Source.Cards(ctx)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	sounds := make(map[string]Sound, len(l.Sounds))
	for k, v := range l.Sounds {
		sounds[k] = v
	}
	l.log.WithField("cards", len(cards)).WithField("sounds", len(sounds)).Debug("assets loaded")
	return &Catalog{Cards: cards, Sounds: sounds}, nil
}

// LoadAsync runs Load in the background and delivers exactly one result.
func (l *Loader) LoadAsync(ctx context.Context) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	go func() {
		catalog, err := l.Load(ctx)
		ch <- LoadResult{catalog, err}
		close(ch)
	}()
	return ch
}
