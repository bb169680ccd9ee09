package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/conf"

	"labjudge/internal/corrector/config"
	"labjudge/internal/corrector/model"
	"labjudge/internal/corrector/service"
	"labjudge/internal/corrector/svc"
	"labjudge/internal/corrector/testpack"
	"labjudge/pkg/utils/contextkey"
	"labjudge/pkg/utils/logger"
)

var (
	configFile = flag.String("f", "etc/corrector.yaml", "the config file")
	student    = flag.String("s", "", "correct a single student submission")
	filter     = flag.String("e", model.FilterAll, "only regrade submissions in this category")
)

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)
	config.ApplyDefaults(&c)
	if err := c.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(c.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.WithValue(context.Background(), contextkey.RunID, uuid.NewString())

	if c.Pack.Path != "" {
		if err := testpack.Ensure(ctx, c.Pack.Path, c.Lab.TestcasesPath, c.Pack.Hash); err != nil {
			logger.Errorf(ctx, "prepare test pack: %v", err)
			os.Exit(1)
		}
	}

	svcCtx, err := svc.NewServiceContext(c)
	if err != nil {
		logger.Errorf(ctx, "init service: %v", err)
		os.Exit(1)
	}

	summary, err := service.New(svcCtx).RunBatch(ctx, *filter, *student)
	if err != nil {
		logger.Errorf(ctx, "batch aborted: %v\n%s", err, err.Stack)
		os.Exit(1)
	}

	logger.Infof(ctx, "lab %d correction finished: %d graded, %d skipped", c.Lab.Number, summary.Graded, summary.Skipped)
	for _, cat := range model.Categories() {
		if n := summary.Counts[cat]; n > 0 {
			logger.Infof(ctx, "  %s: %d", cat, n)
		}
	}
}
