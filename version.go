package proofweave

// Version is overwritten at build time with -ldflags "-X github.com/aretw0/proofweave.Version=...".
var Version = "0.1.0-dev"
