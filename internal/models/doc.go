// Package models defines domain entities and persistence interfaces for the inkwell platform client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs mirroring platform API payloads
//   - [UserProfile] : Account identity as served by the identity endpoint
//   - [AccessToken] : Short-lived bearer credential with its server-declared TTL
//   - [Charge] : Checkout record with its [ChargeState]
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [CachedProfile] : Last-known profile snapshot for offline display
//
// Persistent entities implement the Model interface providing ID generation, timestamps, and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
