// Package integrationtests runs whole chain definitions through the app, the
// same way the binary does, and checks what reaches the end of each chain.
package integrationtests
