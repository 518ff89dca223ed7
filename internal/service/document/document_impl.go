package document

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/document-client/config"
	"github.com/feichai0017/document-client/internal/models"
	"github.com/feichai0017/document-client/internal/service/identity"
	"github.com/feichai0017/document-client/pkg/converters"
	"github.com/feichai0017/document-client/pkg/docapi"
	"github.com/feichai0017/document-client/pkg/logger"
	"github.com/feichai0017/document-client/pkg/push"
)

// ErrEmptyID is returned when a document id is required but empty.
var ErrEmptyID = errors.New("document id is empty")

type DocumentService struct {
	api       docapi.DocumentAPI
	dialer    push.Dialer
	users     identity.UserProvider
	converter converters.DocumentConverter
	logger    logger.Logger
	config    *ServiceConfig

	mu            sync.RWMutex
	documents     []models.Document
	briefs        []models.DocumentBrief
	subscriptions map[string]*subscription
	// closed and replaced on every document change
	updated chan struct{}
}

type ServiceConfig struct {
	// MaxDocuments caps the collection; the oldest inserted document is
	// evicted first. 0 means unbounded.
	MaxDocuments         int
	MaxConcurrentFetches int
}

// subscription is one open push channel for a processing document.
type subscription struct {
	id      string
	address string
	channel push.Channel
}

var _ DocumentStore = (*DocumentService)(nil)

func NewService(
	api docapi.DocumentAPI,
	dialer push.Dialer,
	users identity.UserProvider,
	log logger.Logger,
	cfg *ServiceConfig,
) *DocumentService {
	if cfg == nil {
		cfg = &ServiceConfig{
			MaxConcurrentFetches: 4,
		}
	}
	if cfg.MaxConcurrentFetches < 1 {
		cfg.MaxConcurrentFetches = 1
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &DocumentService{
		api:           api,
		dialer:        dialer,
		users:         users,
		converter:     converters.NewJSONConverter(nil),
		logger:        log.Named("document"),
		config:        cfg,
		subscriptions: make(map[string]*subscription),
		updated:       make(chan struct{}),
	}
}

// GetService wires a DocumentService from the process configuration.
func GetService(cfg *config.Config, users identity.UserProvider, log logger.Logger) (*DocumentService, error) {
	api, err := docapi.NewClient(cfg.API.BaseURL, &docapi.Settings{
		Timeout:        cfg.API.Timeout,
		ConnectTimeout: cfg.API.ConnectTimeout,
		TlsTimeout:     cfg.API.ConnectTimeout,
		UserAgent:      "document-client/1",
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document api: %w", err)
	}

	dialer := push.NewWebSocketDialer(&push.Settings{
		HandshakeTimeout: cfg.Push.HandshakeTimeout,
		ReadTimeout:      cfg.Push.ReadTimeout,
	})

	return NewService(api, dialer, users, log, &ServiceConfig{
		MaxDocuments:         cfg.Store.MaxDocuments,
		MaxConcurrentFetches: cfg.Store.MaxConcurrentFetches,
	}), nil
}

// FetchDocument resolves id once. A completed response is upserted; a
// processing response opens a push subscription and stores nothing.
func (s *DocumentService) FetchDocument(ctx context.Context, id string) (*FetchResult, error) {
	if id == "" {
		return nil, ErrEmptyID
	}

	env, err := s.api.GetDocument(ctx, id)
	if err != nil {
		s.logger.Error("Failed to fetch document",
			logger.String("documentId", id),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch document %s: %w", id, err)
	}

	switch env.ProcessingStatus {
	case models.StatusCompleted:
		doc := env.Document
		if doc.ID != id {
			s.logger.Warn("Fetched document id differs from requested id",
				logger.String("documentId", id),
				logger.String("responseId", doc.ID),
			)
		}
		s.AddOrUpdateDocument(doc)
		return &FetchResult{ID: doc.ID, Status: models.StatusCompleted}, nil

	case models.StatusProcessing:
		if err := s.setupWebSocketListener(ctx, id, env.WsURL); err != nil {
			s.logger.Error("Failed to subscribe to document",
				logger.String("documentId", id),
				logger.String("wsUrl", env.WsURL),
				logger.Error(err),
			)
			return nil, fmt.Errorf("failed to subscribe to document %s: %w", id, err)
		}
		return &FetchResult{ID: id, Status: models.StatusProcessing, Subscribed: true}, nil

	default:
		// the converter already rejects unknown statuses
		return nil, fmt.Errorf("%w: unknown processing status %q", docapi.ErrMalformedResponse, env.ProcessingStatus)
	}
}

// FetchDocuments fetches ids concurrently, bounded by MaxConcurrentFetches.
// Results keep the order of the deduplicated ids; the first error is returned.
func (s *DocumentService) FetchDocuments(ctx context.Context, ids []string) ([]*FetchResult, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, ErrEmptyID
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	results := make([]*FetchResult, len(unique))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrentFetches)

	for i, id := range unique {
		i, id := i, id
		g.Go(func() error {
			result, err := s.FetchDocument(ctx, id)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// FetchDocumentBriefs replaces the brief collection with the server's
// listing for the current user.
func (s *DocumentService) FetchDocumentBriefs(ctx context.Context) error {
	userID, err := s.users.GetUser(ctx)
	if err != nil {
		s.logger.Error("Failed to resolve user", logger.Error(err))
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	briefs, err := s.api.ListBriefs(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to fetch document briefs",
			logger.String("userId", userID),
			logger.Error(err),
		)
		return fmt.Errorf("failed to fetch document briefs: %w", err)
	}

	s.mu.Lock()
	s.briefs = slices.Clone(briefs)
	s.mu.Unlock()

	s.logger.Debug("Replaced document briefs",
		logger.String("userId", userID),
		logger.Int("count", len(briefs)),
	)
	return nil
}

// GetDocument returns the stored document with id, if any.
func (s *DocumentService) GetDocument(id string) (models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return cloneDocument(s.documents[i]), true
	}
	return models.Document{}, false
}

// GetBriefs returns a copy of the current brief snapshot.
func (s *DocumentService) GetBriefs() []models.DocumentBrief {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.briefs)
}

// AddOrUpdateDocument replaces the document with the same id in place or
// appends it. Last write wins; there is no version check.
func (s *DocumentService) AddOrUpdateDocument(doc models.Document) {
	doc = cloneDocument(doc)

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(doc.ID); i >= 0 {
		s.documents[i] = doc
	} else {
		s.documents = append(s.documents, doc)
		s.evict()
	}

	if doc.Completed() {
		if i := s.briefIndexOf(doc.ID); i >= 0 {
			s.briefs[i] = doc.Brief()
		}
	}

	close(s.updated)
	s.updated = make(chan struct{})
}

// AddOrUpdateDocumentBrief replaces the brief with the same id in place or
// appends it.
func (s *DocumentService) AddOrUpdateDocumentBrief(brief models.DocumentBrief) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.briefIndexOf(brief.ID); i >= 0 {
		s.briefs[i] = brief
		return
	}
	s.briefs = append(s.briefs, brief)
}

// WaitForDocument blocks until a completed document with id is stored or
// ctx is done.
func (s *DocumentService) WaitForDocument(ctx context.Context, id string) (models.Document, error) {
	if id == "" {
		return models.Document{}, ErrEmptyID
	}
	for {
		s.mu.RLock()
		var doc models.Document
		found := false
		if i := s.indexOf(id); i >= 0 && s.documents[i].Completed() {
			doc, found = cloneDocument(s.documents[i]), true
		}
		updated := s.updated
		s.mu.RUnlock()

		if found {
			return doc, nil
		}

		select {
		case <-ctx.Done():
			return models.Document{}, ctx.Err()
		case <-updated:
		}
	}
}

// Subscriptions returns the sorted ids with an open push channel.
func (s *DocumentService) Subscriptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.subscriptions))
	for id := range s.subscriptions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CleanupWebSockets closes every open subscription. Safe to call with none open.
func (s *DocumentService) CleanupWebSockets() {
	s.mu.Lock()
	subs := s.subscriptions
	s.subscriptions = make(map[string]*subscription)
	s.mu.Unlock()

	for _, sub := range subs {
		if err := sub.channel.Close(); err != nil {
			s.logger.Debug("Error closing push channel",
				logger.String("documentId", sub.id),
				logger.Error(err),
			)
		}
	}

	if len(subs) > 0 {
		s.logger.Info("Closed push subscriptions", logger.Int("count", len(subs)))
	}
}

// indexOf returns the position of id in documents or -1 (caller holds lock).
func (s *DocumentService) indexOf(id string) int {
	for i := range s.documents {
		if s.documents[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *DocumentService) briefIndexOf(id string) int {
	for i := range s.briefs {
		if s.briefs[i].ID == id {
			return i
		}
	}
	return -1
}

// evict drops the oldest documents beyond MaxDocuments (caller holds lock).
func (s *DocumentService) evict() {
	limit := s.config.MaxDocuments
	if limit <= 0 || len(s.documents) <= limit {
		return
	}
	n := len(s.documents) - limit
	for _, d := range s.documents[:n] {
		s.logger.Debug("Evicted document", logger.String("documentId", d.ID))
	}
	s.documents = slices.Delete(s.documents, 0, n)
}

func cloneDocument(d models.Document) models.Document {
	if d.Keywords != nil {
		k := *d.Keywords
		d.Keywords = &k
	}
	d.Tags = slices.Clone(d.Tags)
	d.Recommendations = slices.Clone(d.Recommendations)
	d.Blocks = slices.Clone(d.Blocks)
	return d
}
