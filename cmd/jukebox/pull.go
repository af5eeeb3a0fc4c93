package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-jukebox/internal/library"
	"github.com/hazadus/go-jukebox/internal/s3"
)

// errNoBucket возвращается, если хранилище не настроено
var errNoBucket = errors.New("не задан aws_bucket_name в конфигурации")

// createPullCommand создает команду pull с привязкой к экземпляру приложения
func (app *Application) createPullCommand(ctx context.Context) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Download missing tracks from S3 into the music directory",
		Long:  `List audio objects under a bucket prefix and download those missing from the music directory.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("prefix") {
				prefix = app.Config.PullPrefix
			}
			if !app.Config.HasS3() {
				return errNoBucket
			}

			client, err := s3.NewClient(&s3.Config{
				Region:     app.Config.AwsRegion,
				AccessKey:  app.Config.AwsAccessKey,
				SecretKey:  app.Config.AwsSecretKey,
				Endpoint:   app.Config.AwsEndpoint,
				BucketName: app.Config.AwsBucketName,
			})
			if err != nil {
				return err
			}
			return app.pullTracks(ctx, client, prefix)
		},
	}

	cmd.Flags().StringVarP(&prefix, "prefix", "p", "", "bucket key prefix (default from config)")
	return cmd
}

func (app *Application) pullTracks(ctx context.Context, source library.Source, prefix string) error {
	fmt.Printf("📥 Синхронизация с хранилищем:\n")
	fmt.Printf("   Префикс: %s\n", prefix)
	fmt.Printf("   Директория: %s\n", app.Config.MusicDir)
	fmt.Println()

	puller := library.NewPuller(source, app.Config.MusicDir, app.Config.Extensions, app.Logger.Named("pull"))
	result, err := puller.Pull(ctx, prefix, func(p library.Progress) {
		if p.Total > 0 {
			fmt.Printf("\r\033[K📊 %s: %.1f%% (%s)",
				p.Key,
				float64(p.Written)/float64(p.Total)*100,
				library.FormatFileSize(p.Written))
		}
	})

	fmt.Printf("\r\033[K")
	for _, path := range result.Downloaded {
		fmt.Printf("✅ %s\n", path)
	}
	fmt.Printf("\nСкачано: %d (%s), уже есть: %d, пропущено: %d\n",
		len(result.Downloaded), library.FormatFileSize(result.Bytes), result.Skipped, result.Ignored)

	if err != nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}
	return nil
}
