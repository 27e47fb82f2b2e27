package gox

import (
	"context"
	"errors"
	"image"
	"sort"
	"sync"

	"github.com/bodgit/gox/voxel"
	"github.com/cespare/xxhash/v2"
)

// LayerVoxels pairs a layer with its reconstructed voxels.
type LayerVoxels struct {
	Layer  *Layer
	Voxels *voxel.Map
}

type raster struct {
	img   image.Image
	err   error
	valid bool
}

type layerJob struct {
	index int
	layer *Layer
}

func (x *Codec) workers() int {
	if x.Workers < 1 {
		return 1
	}
	return x.Workers
}

func generate[T any](ctx context.Context, items []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// decodeAtlases decodes every atlas once per distinct payload. Atlases with
// identical bytes share one decoded image, which must not be modified.
func (x *Codec) decodeAtlases(ctx context.Context, atlases []*Atlas) []raster {
	rasters := make([]raster, len(atlases))

	first := map[uint64]int{}
	var unique []int
	shared := map[int]int{}
	for i, a := range atlases {
		if a == nil {
			continue
		}
		digest := xxhash.Sum64(a.Data)
		if j, ok := first[digest]; ok {
			x.logger.Printf("Atlas %d shares its image with atlas %d\n", i, j)
			shared[i] = j
			continue
		}
		first[digest] = i
		unique = append(unique, i)
	}

	in := generate(ctx, unique)

	var wg sync.WaitGroup
	wg.Add(x.workers())
	for w := 0; w < x.workers(); w++ {
		go func() {
			defer wg.Done()
			for i := range in {
				img, err := atlases[i].Image(x.Raster)
				rasters[i] = raster{img, err, true}
			}
		}()
	}
	wg.Wait()

	for i, j := range shared {
		rasters[i] = rasters[j]
	}

	return rasters
}

func (x *Codec) layerWorker(in <-chan layerJob, rasters []raster, out []LayerVoxels) <-chan error {
	errc := make(chan error)
	go func() {
		defer close(errc)
		for job := range in {
			m := voxel.New()
			for i, blk := range job.layer.Blocks {
				err := ErrNoAtlas
				if blk.Index >= 0 && int(blk.Index) < len(rasters) && rasters[blk.Index].valid {
					r := rasters[blk.Index]
					if err = r.err; err == nil {
						_, err = m.AddBlock(r.img, blk.Origin())
					}
				}
				if err != nil {
					x.logger.Printf("Skipping block %d of layer %d: %v\n", i, job.index, err)
					errc <- &BlockError{Layer: job.index, Block: i, Index: blk.Index, Err: err}
				}
			}
			out[job.index] = LayerVoxels{Layer: job.layer, Voxels: m}
		}
	}()
	return errc
}

func collectErrors(errs ...<-chan error) error {
	var blockErrs []*BlockError
	var other []error
	for err := range mergeErrors(errs...) {
		var be *BlockError
		if errors.As(err, &be) {
			blockErrs = append(blockErrs, be)
		} else {
			other = append(other, err)
		}
	}

	sort.Slice(blockErrs, func(i, j int) bool {
		if blockErrs[i].Layer != blockErrs[j].Layer {
			return blockErrs[i].Layer < blockErrs[j].Layer
		}
		return blockErrs[i].Block < blockErrs[j].Block
	})
	for _, be := range blockErrs {
		other = append(other, be)
	}

	return errors.Join(other...)
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Voxels reconstructs the voxels of every layer in c, in layer order.
//
// Each distinct atlas is decoded once and layers are reconstructed
// concurrently by up to Workers goroutines. Within a layer blocks are
// applied in the order they are referenced, so where blocks overlap the
// later block's voxel wins. A block that cannot be applied is skipped and
// reported as a *BlockError; all such errors are joined.
func (x *Codec) Voxels(c *Container) ([]LayerVoxels, error) {
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	rasters := x.decodeAtlases(ctx, c.Atlases())

	layers := c.Layers()
	jobs := make([]layerJob, len(layers))
	for i, l := range layers {
		jobs[i] = layerJob{index: i, layer: l}
	}

	out := make([]LayerVoxels, len(layers))
	in := generate(ctx, jobs)

	var errcList []<-chan error
	for i := 0; i < x.workers(); i++ {
		errcList = append(errcList, x.layerWorker(in, rasters, out))
	}

	return out, collectErrors(errcList...)
}

// Flatten merges the voxels of the visible layers into one map. Layers are
// applied in order, so a later layer's voxel wins where layers overlap.
func Flatten(voxels []LayerVoxels) *voxel.Map {
	m := voxel.New()
	for _, lv := range voxels {
		if lv.Layer == nil || lv.Voxels == nil || !lv.Layer.Visible() {
			continue
		}
		m.Merge(lv.Voxels)
	}
	return m
}
