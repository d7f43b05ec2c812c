// Package tools provides the fixed tool registry mapping tool names to
// their in-process capabilities. The registry is built once at startup;
// there is no dynamic registration.
package tools
