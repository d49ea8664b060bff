// Package definition holds the contract between the framegraph engine and
// the concrete resource factories it allocates from.
//
// A Definition describes one kind of backing resource: how to create a fresh
// payload, how to dispose one, and the policy flags governing reuse. The
// engine never inspects payloads itself; whether an existing payload can
// serve a new declaration is decided entirely by the definition's optional
// binding capabilities:
//
//	DirectBinder   - the existing payload satisfies the definition strictly,
//	                 as-is (a texture of exactly the right format and size)
//	IndirectBinder - the payload satisfies it loosely, typically after
//	                 reconfiguration (a larger texture that can be cropped)
//
// Both are optional interfaces checked by type assertion; a definition
// implementing neither can only ever be satisfied by creating new payloads.
//
// Embed Base for the conventional flag defaults:
//
//	type TargetDef struct {
//		definition.Base
//		Width, Height int
//	}
//
//	func (d *TargetDef) CreateResource() any { return newTarget(d.Width, d.Height) }
//
//	func (d *TargetDef) ApplyDirect(existing any) any {
//		if t, ok := existing.(*Target); ok && t.W == d.Width && t.H == d.Height {
//			return t
//		}
//		return nil
//	}
package definition
