// internal/downloader/pool.go
package downloader

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medialoom/loom/pkg/models"
)

// WorkerPool retrieves image carousels and other multi-file results
// concurrently with a bounded number of workers.
type WorkerPool struct {
	downloader  *Downloader
	concurrency int
}

// NewWorkerPool creates a new worker pool with the given concurrency
func NewWorkerPool(concurrency int, timeout time.Duration, userAgent string) *WorkerPool {
	if concurrency <= 0 {
		concurrency = 4
	}
	if concurrency > 50 {
		concurrency = 50
	}

	return &WorkerPool{
		downloader:  NewDownloader(timeout, userAgent),
		concurrency: concurrency,
	}
}

type poolJob struct {
	url      string
	filename string
}

// DownloadImages retrieves every image of a resolved carousel post. Results
// come back in completion order, one per image.
func (wp *WorkerPool) DownloadImages(ctx context.Context, res *models.MediaResult, opts DownloadOptions) []*DownloadResult {
	jobs := make([]poolJob, 0, len(res.Images))
	for i, img := range res.Images {
		jobs = append(jobs, poolJob{
			url:      img.URL,
			filename: FilenameForImage(res, img, i),
		})
	}
	return wp.run(ctx, jobs, opts)
}

// DownloadBatch retrieves a flat list of URLs, deriving filenames from each URL
func (wp *WorkerPool) DownloadBatch(ctx context.Context, urls []string, opts DownloadOptions) []*DownloadResult {
	jobs := make([]poolJob, 0, len(urls))
	for _, u := range urls {
		jobs = append(jobs, poolJob{url: u})
	}
	return wp.run(ctx, jobs, opts)
}

func (wp *WorkerPool) run(ctx context.Context, jobList []poolJob, opts DownloadOptions) []*DownloadResult {
	if len(jobList) == 0 {
		return []*DownloadResult{}
	}

	jobs := make(chan poolJob, len(jobList))
	results := make(chan *DownloadResult, len(jobList))

	var wg sync.WaitGroup
	for w := 1; w <= wp.concurrency; w++ {
		wg.Add(1)
		go wp.worker(ctx, w, jobs, results, opts, &wg)
	}

	go func() {
		for _, job := range jobList {
			jobs <- job
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	allResults := make([]*DownloadResult, 0, len(jobList))
	for result := range results {
		allResults = append(allResults, result)
	}

	return allResults
}

func (wp *WorkerPool) worker(ctx context.Context, id int, jobs <-chan poolJob, results chan<- *DownloadResult, opts DownloadOptions, wg *sync.WaitGroup) {
	defer wg.Done()

	log.Debug().Int("worker_id", id).Msg("Worker started")

	for job := range jobs {
		select {
		case <-ctx.Done():
			log.Debug().Int("worker_id", id).Msg("Worker cancelled")
			return
		default:
		}

		log.Debug().
			Int("worker_id", id).
			Str("url", job.url).
			Msg("Worker processing download")

		jobOpts := opts
		if job.filename != "" {
			jobOpts.Filename = job.filename
		}
		result := wp.downloader.Download(ctx, job.url, jobOpts)

		select {
		case results <- result:
		case <-ctx.Done():
			return
		}
	}

	log.Debug().Int("worker_id", id).Msg("Worker finished")
}
