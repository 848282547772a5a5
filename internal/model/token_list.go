package model

import "sync"

// TokenList guards a shared token slice behind a reader-writer lock. Fetch
// tasks hold the read lock only while building outbound calls and the write
// lock only while applying decoded results, so network round trips never run
// under a lock.
type TokenList struct {
	mu    sync.RWMutex
	items []*Token
}

// NewTokenList wraps a token slice. The list takes ownership of the slice.
func NewTokenList(items []*Token) *TokenList {
	return &TokenList{items: items}
}

// View runs fn with the read lock held.
func (l *TokenList) View(fn func(tokens []*Token)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.items)
}

// Update runs fn with the write lock held.
func (l *TokenList) Update(fn func(tokens []*Token)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.items)
}

// Len returns the number of tokens.
func (l *TokenList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Items returns a copy of the slice for exclusive, post-refresh use.
func (l *TokenList) Items() []*Token {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Token, len(l.items))
	copy(out, l.items)
	return out
}

// Clone deep-copies every token into a new, independently locked list.
func (l *TokenList) Clone() *TokenList {
	l.mu.RLock()
	defer l.mu.RUnlock()
	items := make([]*Token, len(l.items))
	for i, token := range l.items {
		items[i] = token.Clone()
	}
	return NewTokenList(items)
}
