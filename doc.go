// Package semshift measures semantic drift between two word embedding spaces.
//
// Two independently trained spaces live in arbitrary coordinate frames. An
// Engine intersects their vocabularies, fits an orthogonal rotation with one
// of three strategies and scores every shared word by how far it moved:
//
//   - align.Global: Procrustes on a chosen anchor set.
//   - align.NoiseAware: EM that down-weights words which drifted.
//   - align.S4: self-supervised landmark discovery with a classifier.
//
// # Quick Start
//
//	src, _ := wordvec.LoadFile("1990.txt")
//	dst, _ := wordvec.LoadFile("2020.txt")
//
//	eng := semshift.New(semshift.WithSeed(42))
//	a, _ := eng.Align(ctx, src, dst, align.DefaultS4())
//
//	top, _ := a.TopShiftedWords(ctx, 20)
//	for _, w := range top {
//	    fmt.Println(w.Word, w.Shift)
//	}
//
// # Neighbours
//
// Context returns the nearest words of the other space, which shows what a
// drifted word now sits next to:
//
//	n, _ := a.Context(ctx, "cell", shift.Source, 10)
//
// # Persistence
//
// An Alignment converts to an artifact.Bundle, which is stored blob by blob
// on any blobstore.BlobStore (local disk, memory, S3, MinIO):
//
//	store := artifact.NewStore(blobstore.NewLocalStore("./runs"))
//	b, _ := a.ToBundle("")
//	name, _ := store.Save(ctx, b)
//	_ = store.Commit(ctx, name)
//
// # Sentence Mining
//
// With an occurrence index and the raw lines of both corpora, a Miner finds
// the least similar line pairs that use a word:
//
//	m, _ := a.Miner(srcCorpus, dstCorpus)
//	pairs, _ := m.DissimilarPairs(ctx, "cell", 5)
package semshift
