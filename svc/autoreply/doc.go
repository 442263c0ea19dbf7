// Package autoreply answers inbound chat messages that ask for pictures.
//
// A Responder checks message bodies against a set of trigger words. Matching
// ignores case and diacritics, so "Fotografías" and "FOTOGRAFIAS" both match
// "fotografias", and a trigger anywhere in the message counts. On a match the
// media source is listed at that moment and every item is sent as its own
// message.
package autoreply
