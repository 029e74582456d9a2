// Package coffer provides a persistent coin ledger for Go applications.
//
// Coffer keeps one non-negative integer balance per account, moves coins
// between accounts, and writes a human-readable transaction log line for
// every change. It is a library, not a service: import it, pick a store and
// a log, and call its methods from your bot, game server or API handlers.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/coffer"
//	    "github.com/xraph/coffer/store/file"
//	    filelog "github.com/xraph/coffer/txlog/file"
//	)
//
//	s, err := file.Open("data/balances.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	l, err := filelog.Open("data/transactions.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c := coffer.New(s, l)
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Stop()
//
//	c.AddMoney(ctx, "Alice", 100, "daily bonus")
//	c.TransferMoney(ctx, "alice", "bob", 40, "lunch")
//
// # Accounts
//
// Account identifiers are normalized before use: lower-cased, with every
// character outside a-z and 0-9 removed. "Alice B." and "aliceb" are the
// same account. An account that has never been credited has a balance of
// zero; there is no explicit creation step.
//
// # Consistency
//
// Every mutation runs under one engine-wide lock, reading the current
// balance, writing the new one and appending its log lines before the next
// mutation starts. A transfer writes both balances in a single store
// operation. Balances never go negative and transfers conserve the total.
//
// Errors fall into two groups. Rejections (ErrInvalidAmount,
// ErrInsufficientFunds, ...) mean nothing was written. Storage failures are
// reported as *StorageError; when its Committed field is set, the balance
// change was written and only the log line is missing.
//
// # Stores
//
// Balances can live in memory (store/memory), in a JSON snapshot file
// (store/file), or in SQLite, PostgreSQL or MongoDB through Grove
// (store/sqlite, store/postgres, store/mongo).
//
// # Plugins
//
// Plugins observe committed operations, rejections and storage failures.
// The audit_hook, observability and amqp_hook packages provide audit
// records, metrics and RabbitMQ event publishing.
package coffer
