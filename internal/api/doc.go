// Package api exposes the audit board over HTTP for the mini-app client.
//
// Each client owns a session identified by a path segment. A session holds
// one pipeline.Runner and one report.Board, so starting an audit supersedes
// the session's running one while other sessions are unaffected.
package api
