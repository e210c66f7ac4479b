// Package serialization reads and writes tensor state dicts in SafeTensors format.
//
//	Format Structure:
//	  [8 bytes: header size (uint64 LE)]
//	  [Header: JSON object, tensor name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian bytes, tensors in name order]
//
// The optional "__metadata__" header entry is a string map. Files written by this
// package store a SHA-256 of the data section under the "sha256" metadata key; readers
// verify it when present.
//
// Example usage:
//
//	err := serialization.WriteSafeTensors("model-100", stateDict, map[string]string{"step": "100"})
//
//	r, err := serialization.OpenSafeTensors("model-100")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	stateDict, err := r.ReadStateDict()
package serialization
