// Package filestore provides the storage backbone for a multi-tenant
// file-management application: a tenant/user registry, an object store
// abstraction, least-privilege access control, and a presigned upload
// protocol in which clients upload directly to storage through short-lived
// signed URLs.
//
// # Architecture
//
// The service composes four collaborators, each an interface:
//
//   - Registry: tenants and their users (registry/memory, registry/postgres)
//   - BlobStore: object storage (storage/memory, storage/s3)
//   - UploadSigner: the delegated write credential used to sign grants
//     (presign.Signer for self-hosted stores, storage/s3 for AWS presign)
//   - objectkey.Generator: the key derivation strategy
//
// Reads of completed files flow through the edge package, never directly
// against the store; the access package wraps stores in default-deny
// policy guards so every operation is authorized at the store boundary.
//
// # Basic Usage
//
//	svc, err := filestore.New(
//	    filestore.WithRegistry(memoryregistry.New()),
//	    filestore.WithStore(store),
//	    filestore.WithSigner(signer),
//	)
//
//	grant, err := svc.RequestUpload(ctx, filestore.UploadRequest{
//	    TenantID:    "T001",
//	    Module:      "uploads",
//	    FileName:    "report.pdf",
//	    ContentType: "application/pdf",
//	})
//	// client PUTs directly to grant.URL, then:
//	result, err := svc.VerifyUpload(ctx, grant)
//
// Every derived key begins with the requesting tenant's identifier, which
// is the tenant isolation boundary the rest of the system relies on.
package filestore
