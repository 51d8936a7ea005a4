// Package kvstore provides a key-value store with per-key expiration.
//
// Two backends implement Store: Memory keeps entries in-process and removes
// expired ones with a periodic sweep, Redis shares entries between service
// instances. Callers pick one at construction time with NewFromDriver and
// never branch on the backend afterwards.
package kvstore
