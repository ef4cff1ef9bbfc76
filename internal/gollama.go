package internal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"unsafe"

	gollama "github.com/dianlight/gollama.cpp"
)

// llama.cpp default seed, keeps sampling reproducible-enough across runs.
const samplerSeed = 0xFFFFFFFF

// offloadLayers is how many layers llama.cpp may push to an
// accelerator: everything on Apple silicon or visible NVIDIA hardware,
// nothing otherwise.
func offloadLayers() int32 {
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return 99
	}
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return 99
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return 99
	}
	return 0
}

var _ Embedder = (*LocalEmbedder)(nil)

// LocalEmbedder produces pooled, L2-normalized embeddings from a local
// GGUF model via llama.cpp.
type LocalEmbedder struct {
	mu        sync.Mutex
	model     gollama.LlamaModel
	ctx       gollama.LlamaContext
	dimension int
}

func NewLocalEmbedder(modelPath string, dimension int) (*LocalEmbedder, error) {
	if err := gollama.Backend_init(); err != nil {
		return nil, fmt.Errorf("init backend: %w", err)
	}
	_ = gollama.Log_disable()

	modelParams := gollama.Model_default_params()
	modelParams.NGpuLayers = offloadLayers()

	model, err := gollama.Model_load_from_file(modelPath, modelParams)
	if err != nil {
		gollama.Backend_free()
		return nil, fmt.Errorf("load embedding model: %w", err)
	}

	actualDim := int(gollama.Model_n_embd(model))
	if dimension > 0 && dimension != actualDim {
		gollama.Model_free(model)
		gollama.Backend_free()
		return nil, fmt.Errorf("%w: model has %d, configured %d", ErrDimensionMismatch, actualDim, dimension)
	}

	ctxParams := gollama.Context_default_params()
	ctxParams.Embeddings = 1
	ctxParams.NCtx = 512

	lctx, err := gollama.Init_from_model(model, ctxParams)
	if err != nil {
		gollama.Model_free(model)
		gollama.Backend_free()
		return nil, fmt.Errorf("init embedding context: %w", err)
	}
	gollama.Set_embeddings(lctx, true)

	return &LocalEmbedder{
		model:     model,
		ctx:       lctx,
		dimension: actualDim,
	}, nil
}

func (e *LocalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens, err := gollama.Tokenize(e.model, text, true, false)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	if len(tokens) == 0 {
		return make([]float32, e.dimension), nil
	}

	gollama.Memory_clear(e.ctx, false)

	batch := gollama.Batch_init(int32(len(tokens)), 0, 1)
	defer gollama.Batch_free(batch)
	fillBatch(&batch, tokens, 0, true)

	if err := gollama.Decode(e.ctx, batch); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	// Pooled models expose the sequence embedding, not per-token ones.
	embPtr := gollama.Get_embeddings_seq(e.ctx, 0)
	if embPtr == nil {
		return nil, fmt.Errorf("no embeddings returned (model may not support pooling)")
	}

	vec := make([]float32, e.dimension)
	copy(vec, unsafe.Slice(embPtr, e.dimension))

	return l2Normalize(vec), nil
}

func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		results[i] = vec
	}
	return results, nil
}

func (e *LocalEmbedder) Dimension() int {
	return e.dimension
}

func (e *LocalEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	gollama.Free(e.ctx)
	gollama.Model_free(e.model)
	gollama.Backend_free()
	return nil
}

var _ Generator = (*LocalGenerator)(nil)

// LocalGenerator streams completions token by token from a local GGUF
// model. One decode context is shared across calls; the stream
// controller keeps calls serialized.
type LocalGenerator struct {
	mu    sync.Mutex
	model gollama.LlamaModel
	ctx   gollama.LlamaContext
	nCtx  int32
}

// NewLocalGenerator loads the generation model. Context size comes from
// configuration, GPU offload from hardware detection.
func NewLocalGenerator(modelPath string, contextSize int) (*LocalGenerator, error) {
	if err := gollama.Backend_init(); err != nil {
		return nil, fmt.Errorf("init backend: %w", err)
	}
	_ = gollama.Log_disable()

	modelParams := gollama.Model_default_params()
	modelParams.NGpuLayers = offloadLayers()

	model, err := gollama.Model_load_from_file(modelPath, modelParams)
	if err != nil {
		gollama.Backend_free()
		return nil, fmt.Errorf("load generation model: %w", err)
	}

	if contextSize <= 0 {
		contextSize = 2048
	}

	ctxParams := gollama.Context_default_params()
	ctxParams.NCtx = uint32(contextSize)

	lctx, err := gollama.Init_from_model(model, ctxParams)
	if err != nil {
		gollama.Model_free(model)
		gollama.Backend_free()
		return nil, fmt.Errorf("init generation context: %w", err)
	}

	return &LocalGenerator{
		model: model,
		ctx:   lctx,
		nCtx:  int32(contextSize),
	}, nil
}

func (g *LocalGenerator) Generate(ctx context.Context, prompt string, params SamplingParams, emit func(token string) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tokens, err := gollama.Tokenize(g.model, prompt, true, true)
	if err != nil {
		return fmt.Errorf("tokenize prompt: %w", err)
	}
	if int32(len(tokens)) >= g.nCtx {
		return fmt.Errorf("prompt is %d tokens, context holds %d", len(tokens), g.nCtx)
	}

	gollama.Memory_clear(g.ctx, false)

	sampler := newSamplerChain(params)
	defer gollama.Sampler_free(sampler)

	batch := gollama.Batch_init(int32(len(tokens)), 0, 1)
	fillBatch(&batch, tokens, 0, false)
	err = gollama.Decode(g.ctx, batch)
	gollama.Batch_free(batch)
	if err != nil {
		return fmt.Errorf("decode prompt: %w", err)
	}

	vocab := gollama.Model_get_vocab(g.model)
	pos := int32(len(tokens))

	for produced := 0; produced < params.MaxTokens && pos < g.nCtx; produced++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		token := gollama.Sampler_sample(sampler, g.ctx, -1)
		if gollama.Vocab_is_eog(vocab, token) {
			return nil
		}

		piece, err := gollama.Token_to_piece(vocab, token, false)
		if err != nil {
			return fmt.Errorf("detokenize: %w", err)
		}
		if piece != "" {
			if err := emit(piece); err != nil {
				return err
			}
		}

		next := gollama.Batch_init(1, 0, 1)
		fillBatch(&next, []gollama.LlamaToken{token}, pos, false)
		err = gollama.Decode(g.ctx, next)
		gollama.Batch_free(next)
		if err != nil {
			return fmt.Errorf("decode token: %w", err)
		}
		pos++
	}

	return nil
}

func (g *LocalGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gollama.Free(g.ctx)
	gollama.Model_free(g.model)
	gollama.Backend_free()
	return nil
}

func newSamplerChain(params SamplingParams) gollama.LlamaSampler {
	chain := gollama.Sampler_chain_init(gollama.Sampler_chain_default_params())
	gollama.Sampler_chain_add(chain, gollama.Sampler_init_top_p(params.TopP, 1))
	gollama.Sampler_chain_add(chain, gollama.Sampler_init_temp(params.Temperature))
	gollama.Sampler_chain_add(chain, gollama.Sampler_init_dist(samplerSeed))
	return chain
}

// fillBatch writes tokens at consecutive positions starting at base on
// sequence 0. Logits are requested on every token when allLogits is
// set (embedding pooling), otherwise only on the last one.
func fillBatch(batch *gollama.LlamaBatch, tokens []gollama.LlamaToken, base int32, allLogits bool) {
	n := int32(len(tokens))

	tokenSlice := unsafe.Slice(batch.Token, n)
	posSlice := unsafe.Slice(batch.Pos, n)
	nSeqSlice := unsafe.Slice(batch.NSeqId, n)
	seqIdSlice := unsafe.Slice(batch.SeqId, n)
	logitsSlice := unsafe.Slice(batch.Logits, n)

	for i := int32(0); i < n; i++ {
		tokenSlice[i] = tokens[i]
		posSlice[i] = gollama.LlamaPos(base + i)
		nSeqSlice[i] = 1
		*seqIdSlice[i] = 0
		if allLogits || i == n-1 {
			logitsSlice[i] = 1
		} else {
			logitsSlice[i] = 0
		}
	}
	batch.NTokens = n
}
