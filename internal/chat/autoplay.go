package chat

import (
	"sync"
	"time"

	"github.com/ammar1510/voicelink/internal/audio"
	"github.com/ammar1510/voicelink/internal/models"
)

// SequencerState is the autoplay lifecycle position.
type SequencerState int

const (
	StateIdle SequencerState = iota
	StateSelecting
	StatePlaying
	StateAdvancePending
)

// advanceDelay is the pause between consecutive clips in a chain.
const advanceDelay = time.Second

// Sequencer chains playback of unread incoming messages in the open
// conversation. Only one clip is ever in flight; a new trigger while a
// chain is active is ignored rather than queued. Timers are never
// cancelled: each stop or reset bumps a generation counter and a firing
// timer checks it before acting.
type Sequencer struct {
	player  audio.Player
	reader  *ReadTracker
	selfUID string

	mu           sync.Mutex
	state        SequencerState
	conversation string
	ordered      []playItem
	currentIndex int
	lastCount    int
	generation   int
}

type playItem struct {
	messageID string
	audioURL  string
	timestamp time.Time
	incoming  bool
	read      bool
}

func NewSequencer(player audio.Player, reader *ReadTracker, selfUID string) *Sequencer {
	s := &Sequencer{
		player:       player,
		reader:       reader,
		selfUID:      selfUID,
		currentIndex: -1,
	}
	player.SetOnFinished(s.OnPlaybackFinished)
	return s
}

// State returns the current lifecycle position.
func (s *Sequencer) State() SequencerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetConversation points the sequencer at the open conversation and
// resets any active chain.
func (s *Sequencer) SetConversation(conv *models.Conversation) {
	s.mu.Lock()
	s.generation++
	s.state = StateIdle
	s.currentIndex = -1
	if conv == nil {
		s.conversation = ""
		s.ordered = nil
		s.lastCount = 0
	} else {
		s.conversation = conv.ConversationID
		s.ordered = s.itemize(conv)
		s.lastCount = len(s.ordered)
	}
	s.mu.Unlock()

	s.player.Stop()
}

// OnNewMessage absorbs the conversation's new state and, when the
// message count grew while the sequencer was idle, starts a chain at the
// oldest unread incoming message. Count is the trigger, not content: an
// update that only flips read flags starts nothing.
func (s *Sequencer) OnNewMessage(conv *models.Conversation) {
	s.mu.Lock()
	if s.conversation == "" || conv.ConversationID != s.conversation {
		s.mu.Unlock()
		return
	}

	prev := s.lastCount
	s.ordered = s.itemize(conv)
	s.lastCount = len(s.ordered)

	if len(s.ordered) <= prev || s.state != StateIdle {
		s.mu.Unlock()
		return
	}

	s.state = StateSelecting
	start := s.oldestUnread()
	if start < 0 {
		s.state = StateIdle
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.playAt(start)
}

// Begin starts a chain over the open conversation without waiting for a
// count increase, used when a conversation is opened directly. A busy
// sequencer or a fully read conversation is left untouched.
func (s *Sequencer) Begin() {
	s.mu.Lock()
	if s.conversation == "" || s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.state = StateSelecting
	start := s.oldestUnread()
	if start < 0 {
		s.state = StateIdle
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.playAt(start)
}

// OnPlaybackFinished scans strictly forward from the clip that just
// ended, skipping the listener's own messages. The first read incoming
// message ends the chain; the first unread one is played after the
// advance delay.
func (s *Sequencer) OnPlaybackFinished() {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return
	}

	next := -1
	for i := s.currentIndex + 1; i < len(s.ordered); i++ {
		item := s.ordered[i]
		if !item.incoming {
			continue
		}
		if item.read {
			break
		}
		next = i
		break
	}

	if next < 0 {
		s.state = StateIdle
		s.mu.Unlock()
		return
	}

	s.state = StateAdvancePending
	gen := s.generation
	s.mu.Unlock()

	time.AfterFunc(advanceDelay, func() {
		s.mu.Lock()
		fresh := gen == s.generation && s.state == StateAdvancePending
		s.mu.Unlock()
		if fresh {
			s.playAt(next)
		}
	})
}

// Stop abandons the chain and halts playback. Any pending advance timer
// still fires but finds a stale generation and does nothing.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.generation++
	s.state = StateIdle
	s.currentIndex = -1
	s.mu.Unlock()

	s.player.Stop()
}

func (s *Sequencer) playAt(index int) {
	s.mu.Lock()
	if index < 0 || index >= len(s.ordered) {
		s.state = StateIdle
		s.mu.Unlock()
		return
	}
	item := s.ordered[index]
	s.ordered[index].read = true
	s.currentIndex = index
	s.state = StatePlaying
	gen := s.generation
	convID := s.conversation
	s.mu.Unlock()

	if err := s.reader.markPlayed(convID, item.messageID, item.timestamp, s.selfUID); err != nil {
		log.Warn("failed to persist read state for %s: %v", item.messageID, err)
	}

	if err := s.player.Play(item.audioURL); err != nil {
		log.Error("playback failed for %s: %v", item.messageID, err)
		s.mu.Lock()
		if gen == s.generation {
			s.state = StateIdle
		}
		s.mu.Unlock()
	}
}

// oldestUnread returns the index of the earliest unread incoming item,
// or -1. Callers hold the mutex.
func (s *Sequencer) oldestUnread() int {
	for i, item := range s.ordered {
		if item.incoming && !item.read {
			return i
		}
	}
	return -1
}

func (s *Sequencer) itemize(conv *models.Conversation) []playItem {
	items := make([]playItem, 0, len(conv.Messages))
	for _, m := range chronological(conv.Messages) {
		items = append(items, playItem{
			messageID: m.MessageID,
			audioURL:  m.AudioURL,
			timestamp: m.Timestamp,
			incoming:  m.SenderUID != s.selfUID,
			read:      m.IsRead,
		})
	}
	return items
}
