package domain

import (
	"encoding/hex"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// idBytes is how much of the blake2b digest ends up in an id
const idBytes = 12

// PageID uniquely identifies a settings page
type PageID string

// EntryID uniquely identifies a settings entry
type EntryID string

// UniquePageID returns the id of the page built by provider name with the given arguments.
// The result depends only on its inputs, so two processes agree on it.
func UniquePageID(name string, params ...Param) PageID {
	var b keyBuilder
	b.field("page")
	b.field(name)
	for _, p := range params {
		b.field(p.Key)
		b.field(p.Value)
	}
	return PageID(b.sum())
}

// UniqueEntryID returns the id of an entry. Name is the entry tag (ROOT, INJECT)
// or a leaf name. The owner, from and to pages are hashed in that order, so
// swapping any two of them yields a different id.
func UniqueEntryID(name string, owner, from, to Page) EntryID {
	var b keyBuilder
	b.field("entry")
	b.field(name)
	b.field(string(owner.ID))
	b.field(string(from.ID))
	b.field(string(to.ID))
	return EntryID(b.sum())
}

// LeafEntryID returns the id of a leaf entry, whose from and to pages are its owner.
func LeafEntryID(name string, owner Page) EntryID {
	return UniqueEntryID(name, owner, owner, owner)
}

// keyBuilder writes length-prefixed fields so "ab"+"c" and "a"+"bc" differ
type keyBuilder struct {
	sb strings.Builder
}

func (k *keyBuilder) field(s string) {
	k.sb.WriteString(strconv.Itoa(len(s)))
	k.sb.WriteByte(':')
	k.sb.WriteString(s)
	k.sb.WriteByte(';')
}

func (k *keyBuilder) sum() string {
	digest := blake2b.Sum256([]byte(k.sb.String()))
	return hex.EncodeToString(digest[:idBytes])
}
