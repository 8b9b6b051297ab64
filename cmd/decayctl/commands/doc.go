// Package commands defines the decayctl CLI.
//
// Commands
//
//   - sample     Sample atom positions on a sphere
//   - couplings  Compute dipole-dipole shift and decay matrices
//   - lowering   Build a Clebsch-Gordan weighted lowering operator
//   - green      Evaluate the electromagnetic Green tensor at a separation
//
// # Implementation
//
// Every command computes locally and prints JSON to stdout, or to a file
// with --out. Nothing here touches the server or its database, so the
// tool works offline on the same physics the service exposes.
package commands
