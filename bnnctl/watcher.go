package bnnctl

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// LoaderFunc turns a file into a packed bitmap.
type LoaderFunc func(path string, cfg Config) ([]byte, error)

// LoadFile reads .bin files as raw packed bitmaps and hands everything
// else to LoadBitmap.
func LoadFile(path string, cfg Config) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read bitmap")
		}
		return DecodeBitmap(raw, cfg)
	}
	return LoadBitmap(path, cfg)
}

var watchedExts = map[string]bool{
	".bin": true, ".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".pgm": true,
}

type fileStamp struct {
	size int64
	mod  time.Time
}

// ImageWatcher queues a job for every image dropped into a directory.
type ImageWatcher struct {
	dir     string
	cfg     Config
	watcher *fsnotify.Watcher
	Load    LoaderFunc
	seen    map[string]fileStamp
}

func NewImageWatcher(dir string, cfg Config) (*ImageWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "fsnotify")
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "watch %s", dir)
	}
	return &ImageWatcher{
		dir:     dir,
		cfg:     cfg,
		watcher: w,
		Load:    LoadFile,
		seen:    make(map[string]fileStamp),
	}, nil
}

// Watch blocks until ctx is done or the watcher is closed.
func (w *ImageWatcher) Watch(ctx context.Context, jobs chan<- Job) error {
	INFOLogger.Printf("Watching %s for images", w.dir)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			job, ok := w.handle(ev.Name)
			if !ok {
				continue
			}
			select {
			case jobs <- job:
			case <-ctx.Done():
				return ctx.Err()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			WARNINGLogger.Printf("watcher: %v", err)
		}
	}
}

func (w *ImageWatcher) handle(path string) (Job, bool) {
	if !watchedExts[strings.ToLower(filepath.Ext(path))] {
		return Job{}, false
	}
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() || fi.Size() == 0 {
		return Job{}, false
	}
	stamp := fileStamp{size: fi.Size(), mod: fi.ModTime()}
	if w.seen[path] == stamp {
		return Job{}, false
	}
	img, err := w.Load(path, w.cfg)
	if err != nil {
		// likely a partial write; a later event retries
		debugf("watcher: %s not loadable yet: %v", path, err)
		return Job{}, false
	}
	w.seen[path] = stamp
	return NewJob("file:"+filepath.Base(path), img), true
}

func (w *ImageWatcher) Close() error {
	return w.watcher.Close()
}
