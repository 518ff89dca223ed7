package document

import (
	"context"
	"errors"

	"github.com/feichai0017/document-client/pkg/logger"
	"github.com/feichai0017/document-client/pkg/push"
)

// setupWebSocketListener opens one push channel for id and listens on it
// until a completed document arrives or the channel closes. Any subscription
// already open for id is closed first.
func (s *DocumentService) setupWebSocketListener(ctx context.Context, id, address string) error {
	s.closeSubscription(id)

	channel, err := s.dialer.Dial(ctx, address)
	if err != nil {
		return err
	}

	sub := &subscription{id: id, address: address, channel: channel}

	s.mu.Lock()
	prev := s.subscriptions[id]
	s.subscriptions[id] = sub
	s.mu.Unlock()

	// a concurrent fetch for the same id may have won the race
	if prev != nil {
		prev.channel.Close()
	}

	s.logger.Info("Subscribed to document",
		logger.String("documentId", id),
		logger.String("wsUrl", address),
	)

	go s.listen(sub)
	return nil
}

// listen handles messages of one channel in arrival order.
func (s *DocumentService) listen(sub *subscription) {
	defer func() {
		sub.channel.Close()
		s.removeSubscription(sub)
	}()

	log := s.logger.With(logger.String("documentId", sub.id))

	for {
		data, err := sub.channel.Receive()
		if err != nil {
			if errors.Is(err, push.ErrClosed) {
				log.Debug("Push channel closed locally")
			} else {
				log.Info("Push channel closed", logger.Error(err))
			}
			return
		}

		doc, err := s.converter.DecodeDocument(data)
		if err != nil {
			log.Warn("Ignoring malformed push message", logger.Error(err))
			continue
		}
		if !doc.Completed() {
			log.Debug("Ignoring push message", logger.String("status", string(doc.ProcessingStatus)))
			continue
		}

		// drop the subscription before the document becomes visible
		s.removeSubscription(sub)
		sub.channel.Close()
		s.AddOrUpdateDocument(*doc)
		log.Info("Document completed via push")
		return
	}
}

// closeSubscription closes and forgets the subscription for id, if any.
func (s *DocumentService) closeSubscription(id string) {
	s.mu.Lock()
	sub, ok := s.subscriptions[id]
	if ok {
		delete(s.subscriptions, id)
	}
	s.mu.Unlock()

	if ok {
		sub.channel.Close()
	}
}

// removeSubscription forgets sub if it is still the one registered for its
// id. Idempotent.
func (s *DocumentService) removeSubscription(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subscriptions[sub.id] == sub {
		delete(s.subscriptions, sub.id)
	}
}
