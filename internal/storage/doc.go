// Package storage provides the default implementations of the storage
// interfaces [goidc.ClientManager] and [goidc.AccessTokenManager].
//
// The implementations store entities in memory so when the server restarts all
// of them are lost. Persistent implementations live in the sub packages bolt,
// mongodb and mysql.
package storage
