package vector

import (
	"context"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/imai1205/zumen-connect-backend/internal/errs"
)

// PineconeIndex upserts drawing embeddings into a Pinecone index.
type PineconeIndex struct {
	conn *pinecone.IndexConnection
}

func NewPineconeIndex(ctx context.Context, apiKey, indexName string) (*PineconeIndex, error) {
	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, errs.Wrap(err, "create pinecone client")
	}

	idx, err := client.DescribeIndex(ctx, indexName)
	if err != nil {
		return nil, errs.Wrapf(err, "describe pinecone index %q", indexName)
	}

	conn, err := client.Index(pinecone.NewIndexConnParams{Host: idx.Host})
	if err != nil {
		return nil, errs.Wrapf(err, "connect pinecone index %q", indexName)
	}
	return &PineconeIndex{conn: conn}, nil
}

func (p *PineconeIndex) Upsert(ctx context.Context, id string, values []float32, metadata map[string]string) error {
	var meta *pinecone.Metadata
	if len(metadata) > 0 {
		fields := make(map[string]any, len(metadata))
		for k, v := range metadata {
			fields[k] = v
		}
		s, err := structpb.NewStruct(fields)
		if err != nil {
			return errs.Wrap(err, "encode vector metadata")
		}
		meta = s
	}

	_, err := p.conn.UpsertVectors(ctx, []*pinecone.Vector{{
		Id:       id,
		Values:   &values,
		Metadata: meta,
	}})
	if err != nil {
		return errs.Wrapf(err, "upsert vector %q", id)
	}
	return nil
}

func (p *PineconeIndex) Close() error {
	return p.conn.Close()
}
