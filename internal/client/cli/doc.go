// Package cli is the zkvault command-line client.
//
// upload zips and encrypts files locally, proves knowledge of a fresh
// secret and stores the result; it prints a composite secret that is the
// only way back to the data. download reverses this. commit shows the
// object id for a secret, and the admin commands talk to the ops listener.
package cli
