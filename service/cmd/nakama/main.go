// Command nakama builds the rules RPCs as a Nakama Go runtime plugin:
//
//	go build -buildmode=plugin -o tractor.so ./service/cmd/nakama
package main

import (
	"context"
	"database/sql"

	"github.com/findfriends/tractor/service/internal/nakama"
	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule proxies Nakama initialization to the nakama adapter package.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	return nakama.InitModule(ctx, logger, db, nk, initializer)
}

func main() {}
