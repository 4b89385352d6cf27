package modsync

import (
	"github.com/bianoble/modsync/internal/engine"
	"github.com/bianoble/modsync/internal/registry"
	"github.com/bianoble/modsync/internal/vcs"
)

// Type aliases re-export engine and registry types as the public API.
// Users import "github.com/bianoble/modsync/pkg/modsync" and use
// modsync.CheckoutResult, modsync.StatusReport, etc.

type Module = registry.Module
type Inventory = registry.Inventory
type UpstreamState = vcs.UpstreamState
type CheckoutOptions = engine.CheckoutOptions
type CheckoutResult = engine.CheckoutResult
type Action = engine.Action
type Skip = engine.Skip
type ModuleError = engine.ModuleError
type StatusReport = engine.StatusReport
type DirtyModule = engine.DirtyModule
