package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		newStatus,
		newWorkspace,
		fx.Annotate(configCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(down, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(initCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(metaStore, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(objectStore, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(status, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(up, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
