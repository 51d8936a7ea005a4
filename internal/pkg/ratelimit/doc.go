// Package ratelimit counts actions per scope key in fixed windows.
//
// A Limiter applies one Policy on top of a kvstore.Store. It knows nothing
// about HTTP or OTPs: callers derive the scope key (identifier, client IP,
// user id) and decide what to do with the Result.
package ratelimit
