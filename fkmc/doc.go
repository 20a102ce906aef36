// Package fkmc implements a Markov-Chain Monte Carlo engine for the
// Falicov-Kimball model on finite lattices.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - lattice.go: site geometry, hopping matrix, neighbor lists
//   - configuration.go: f-electron configuration, Hamiltonian assembly, caches
//   - chebyshev.go: Chebyshev expansion of the log-partition function
//   - moves.go: proposal kernels (flip, add/remove, reshuffle) and their weights
//   - driver.go: the sampler event loop (warmup + measurement cycles)
//
// # Architecture
//
// The fkmc package owns the physics: lattice, configuration, moves,
// measurements, and the sampler loop. Statistics post-processing lives in
// fkmc/stats (binning, jackknife, derived estimators); persistence lives in
// fkmc/persist. Sub-packages use only fkmc's exported API (Lattice,
// ObservableStore, Params and the error sentinels), never its internals.
//
// # Key Interfaces
//
//   - Lattice: site count, geometry, hopping matrix, neighbor lists
//   - Move: Attempt/Accept/Reject proposal kernel
//   - Measurement: Sample(*Configuration, *ObservableStore)
package fkmc
